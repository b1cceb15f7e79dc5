package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/validate"
)

// saveMediaPart spools the named part and checks its media type prefix.
func saveMediaPart(r *http.Request, field, label, typePrefix string) (*httputil.Upload, error) {
	upload, err := httputil.SaveFormFile(r, field)
	if err != nil {
		if errors.Is(err, httputil.ErrMissingFile) {
			return nil, httputil.BadRequest(label + " is required")
		}
		return nil, httputil.Internal("failed to read "+field, err)
	}
	if !strings.HasPrefix(upload.ContentType, typePrefix) {
		upload.Remove()
		return nil, httputil.BadRequest(label + " has an unsupported file type")
	}
	return upload, nil
}

func (h *Handler) upload(ctx context.Context, upload *httputil.Upload, prefix, ownerID string) (url, key string, err error) {
	key = mediaKey(prefix, ownerID, upload)
	url, err = h.storage.UploadFile(ctx, key, upload.Path, upload.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("upload %s: %w", key, err)
	}
	return url, key, nil
}

func titleAndDescription(r *http.Request) (string, string, error) {
	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		return "", "", httputil.BadRequest("Title and description are required")
	}
	if msg := validate.Title(title); msg != "" {
		return "", "", httputil.BadRequest(msg)
	}
	if msg := validate.Description(description); msg != "" {
		return "", "", httputil.BadRequest(msg)
	}
	return title, description, nil
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())

	if err := httputil.ParseMultipart(w, r, h.maxUploadBytes); err != nil {
		return err
	}
	title, description, err := titleAndDescription(r)
	if err != nil {
		return err
	}

	videoFile, err := saveMediaPart(r, "videoFile", "Video file", "video/")
	if err != nil {
		return err
	}
	defer videoFile.Remove()

	thumbnail, err := saveMediaPart(r, "thumbnail", "Thumbnail", "image/")
	if err != nil {
		return err
	}
	defer thumbnail.Remove()

	duration := h.probe(r.Context(), videoFile.Path)

	videoURL, videoKey, err := h.upload(r.Context(), videoFile, "videos", userID)
	if err != nil {
		return httputil.Internal("Error while uploading video file", err)
	}
	thumbnailURL, thumbnailKey, err := h.upload(r.Context(), thumbnail, "thumbnails", userID)
	if err != nil {
		h.deleteObjects(videoKey)
		return httputil.Internal("Error while uploading thumbnail", err)
	}

	video, err := scanVideo(h.db.QueryRow(r.Context(),
		`WITH v AS (
			INSERT INTO videos (owner_id, title, description, video_file_url, video_file_key, thumbnail_url, thumbnail_key, duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT `+videoColumns+` FROM v JOIN users u ON u.id = v.owner_id`,
		userID, title, description, videoURL, videoKey, thumbnailURL, thumbnailKey, duration,
	))
	if err != nil {
		h.deleteObjects(videoKey, thumbnailKey)
		return httputil.Internal("Something went wrong while publishing the video", err)
	}

	httputil.WriteData(w, http.StatusCreated, video, "Video is published successfully")
	return nil
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) error {
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(r.Context())

	var detail videoDetail
	detail.Video, err = scanVideo(h.db.QueryRow(r.Context(),
		`SELECT `+videoColumns+`,
		        (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id),
		        EXISTS(SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.liked_by = $2)
		 FROM videos v JOIN users u ON u.id = v.owner_id
		 WHERE v.id = $1`,
		videoID, userID,
	), &detail.LikesCount, &detail.IsLiked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Video not found")
		}
		return httputil.Internal("failed to fetch video", err)
	}
	if !detail.IsPublished && detail.Owner.ID != userID {
		return httputil.NotFound("Video not found")
	}

	h.recordView(r.Context(), r, videoID, userID)
	detail.Views++

	httputil.WriteData(w, http.StatusOK, detail, "Video fetched successfully")
	return nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	var ownerID, oldThumbnailKey string
	err = h.db.QueryRow(r.Context(),
		`SELECT owner_id, thumbnail_key FROM videos WHERE id = $1`,
		videoID,
	).Scan(&ownerID, &oldThumbnailKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Video not found")
		}
		return httputil.Internal("failed to fetch video", err)
	}
	if ownerID != userID {
		return httputil.Forbidden("You are not allowed to update this video")
	}

	if err := httputil.ParseMultipart(w, r, h.maxUploadBytes); err != nil {
		return err
	}
	title, description, err := titleAndDescription(r)
	if err != nil {
		return err
	}
	thumbnail, err := saveMediaPart(r, "thumbnail", "Thumbnail", "image/")
	if err != nil {
		return err
	}
	defer thumbnail.Remove()

	thumbnailURL, thumbnailKey, err := h.upload(r.Context(), thumbnail, "thumbnails", userID)
	if err != nil {
		return httputil.Internal("Error while uploading thumbnail", err)
	}

	video, err := scanVideo(h.db.QueryRow(r.Context(),
		`WITH v AS (
			UPDATE videos SET title = $1, description = $2, thumbnail_url = $3, thumbnail_key = $4, updated_at = now()
			WHERE id = $5
			RETURNING *
		)
		SELECT `+videoColumns+` FROM v JOIN users u ON u.id = v.owner_id`,
		title, description, thumbnailURL, thumbnailKey, videoID,
	))
	if err != nil {
		h.deleteObjects(thumbnailKey)
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Video not found")
		}
		return httputil.Internal("failed to update video", err)
	}

	h.deleteObjects(oldThumbnailKey)
	httputil.WriteData(w, http.StatusOK, video, "Video updated successfully")
	return nil
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	var ownerID, videoKey, thumbnailKey string
	err = h.db.QueryRow(r.Context(),
		`SELECT owner_id, video_file_key, thumbnail_key FROM videos WHERE id = $1`,
		videoID,
	).Scan(&ownerID, &videoKey, &thumbnailKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Video not found")
		}
		return httputil.Internal("failed to fetch video", err)
	}
	if ownerID != userID {
		return httputil.Forbidden("You are not allowed to delete this video")
	}

	if _, err := h.db.Exec(r.Context(), `DELETE FROM videos WHERE id = $1`, videoID); err != nil {
		return httputil.Internal("failed to delete video", err)
	}

	h.deleteObjects(videoKey, thumbnailKey)
	httputil.WriteData(w, http.StatusOK, httputil.Empty, "Video deleted successfully")
	return nil
}

func (h *Handler) TogglePublish(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	if err := h.requireOwner(r.Context(), "videos", videoID, userID,
		"Video not found", "You are not allowed to modify this video"); err != nil {
		return err
	}

	video, err := scanVideo(h.db.QueryRow(r.Context(),
		`WITH v AS (
			UPDATE videos SET is_published = NOT is_published, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+videoColumns+` FROM v JOIN users u ON u.id = v.owner_id`,
		videoID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Video not found")
		}
		return httputil.Internal("failed to toggle publish status", err)
	}

	httputil.WriteData(w, http.StatusOK, video, "Publish status toggled successfully")
	return nil
}
