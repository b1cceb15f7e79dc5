package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/database"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/validate"
	"github.com/vidtube/vidtube/internal/video"
)

type ObjectStorage interface {
	UploadFile(ctx context.Context, key string, filePath string, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type Handler struct {
	db             database.DBTX
	storage        ObjectStorage
	maxUploadBytes int64
}

func NewHandler(db database.DBTX, s ObjectStorage, maxUploadBytes int64) *Handler {
	return &Handler{db: db, storage: s, maxUploadBytes: maxUploadBytes}
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type channelProfile struct {
	auth.User
	SubscribersCount          int64 `json:"subscribersCount"`
	ChannelsSubscribedToCount int64 `json:"channelsSubscribedToCount"`
	IsSubscribed              bool  `json:"isSubscribed"`
}

// image describes one replaceable profile image.
type image struct {
	field     string
	label     string
	urlColumn string
	keyColumn string
	prefix    string
}

var (
	avatarImage = image{field: "avatar", label: "Avatar", urlColumn: "avatar_url", keyColumn: "avatar_key", prefix: "avatars"}
	coverImage  = image{field: "coverImage", label: "Cover image", urlColumn: "cover_image_url", keyColumn: "cover_image_key", prefix: "covers"}
)

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httputil.BadRequest("invalid request body")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		return httputil.BadRequest("All fields are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return httputil.BadRequest("invalid email address")
	}
	if msg := validate.FullName(req.FullName); msg != "" {
		return httputil.BadRequest(msg)
	}
	if msg := validate.Email(req.Email); msg != "" {
		return httputil.BadRequest(msg)
	}

	user, err := auth.ScanUser(h.db.QueryRow(r.Context(),
		`UPDATE users SET full_name = $1, email = $2, updated_at = now() WHERE id = $3 RETURNING `+auth.UserColumns,
		req.FullName, req.Email, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("User does not exist")
		}
		if database.IsUniqueViolation(err) {
			return httputil.Conflict("Email is already in use")
		}
		return httputil.Internal("failed to update account", err)
	}

	httputil.WriteData(w, http.StatusOK, user, "Account details updated successfully")
	return nil
}

func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, avatarImage)
}

func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, coverImage)
}

func (h *Handler) replaceImage(w http.ResponseWriter, r *http.Request, img image) error {
	userID := auth.UserIDFromContext(r.Context())

	if err := httputil.ParseMultipart(w, r, h.maxUploadBytes); err != nil {
		return err
	}
	upload, err := httputil.SaveFormFile(r, img.field)
	if err != nil {
		if errors.Is(err, httputil.ErrMissingFile) {
			return httputil.BadRequest(img.label + " file is missing")
		}
		return httputil.Internal("failed to read "+img.field, err)
	}
	defer upload.Remove()
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return httputil.BadRequest(img.label + " must be an image")
	}

	var oldKey *string
	err = h.db.QueryRow(r.Context(),
		`SELECT `+img.keyColumn+` FROM users WHERE id = $1`,
		userID,
	).Scan(&oldKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("User does not exist")
		}
		return httputil.Internal("failed to fetch user", err)
	}

	key := fmt.Sprintf("%s/%s/%s%s", img.prefix, userID, uuid.NewString(), upload.Ext())
	url, err := h.storage.UploadFile(r.Context(), key, upload.Path, upload.ContentType)
	if err != nil {
		return httputil.Internal("Error while uploading "+strings.ToLower(img.label), err)
	}

	user, err := auth.ScanUser(h.db.QueryRow(r.Context(),
		`UPDATE users SET `+img.urlColumn+` = $1, `+img.keyColumn+` = $2, updated_at = now() WHERE id = $3 RETURNING `+auth.UserColumns,
		url, key, userID,
	))
	if err != nil {
		h.deleteObject(key)
		return httputil.Internal("failed to update "+strings.ToLower(img.label), err)
	}

	if oldKey != nil {
		h.deleteObject(*oldKey)
	}
	httputil.WriteData(w, http.StatusOK, user, img.label+" updated successfully")
	return nil
}

func (h *Handler) deleteObject(key string) {
	if key == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := h.storage.DeleteObject(ctx, key); err != nil {
			slog.Error("user: failed to delete object", "key", key, "error", err)
		}
	}()
}

func (h *Handler) ChannelProfile(w http.ResponseWriter, r *http.Request) error {
	requester := auth.UserIDFromContext(r.Context())
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		return httputil.BadRequest("username is missing")
	}

	var profile channelProfile
	var err error
	profile.User, err = auth.ScanUser(h.db.QueryRow(r.Context(),
		`SELECT `+auth.UserColumns+`,
		        (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = users.id),
		        (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = users.id),
		        EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = users.id AND s.subscriber_id = $2)
		 FROM users WHERE username = $1`,
		username, requester,
	), &profile.SubscribersCount, &profile.ChannelsSubscribedToCount, &profile.IsSubscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("channel does not exist")
		}
		return httputil.Internal("failed to fetch channel", err)
	}

	httputil.WriteData(w, http.StatusOK, profile, "User channel fetched successfully")
	return nil
}

func (h *Handler) WatchHistory(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())

	rows, err := h.db.Query(r.Context(),
		`SELECT `+video.ListColumns+`
		 FROM watch_history wh
		 JOIN videos v ON v.id = wh.video_id
		 JOIN users u ON u.id = v.owner_id
		 WHERE wh.user_id = $1 AND (v.is_published OR v.owner_id = $1)
		 ORDER BY wh.watched_at DESC`,
		userID,
	)
	if err != nil {
		return httputil.Internal("failed to fetch watch history", err)
	}
	videos, err := video.CollectListVideos(rows)
	if err != nil {
		return httputil.Internal("failed to fetch watch history", err)
	}

	httputil.WriteData(w, http.StatusOK, videos, "Watch history fetched successfully")
	return nil
}
