package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/validate"
)

type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OwnerID     string  `json:"owner"`
	Videos      []Video `json:"videos"`
	TotalVideos int     `json:"totalVideos"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const playlistColumns = `id, name, description, owner_id, created_at, updated_at`

func scanPlaylist(row pgx.Row) (Playlist, error) {
	var p Playlist
	var createdAt, updatedAt time.Time
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &createdAt, &updatedAt); err != nil {
		return Playlist{}, err
	}
	p.CreatedAt = formatTime(createdAt)
	p.UpdatedAt = formatTime(updatedAt)
	p.Videos = []Video{}
	return p, nil
}

func playlistInput(r *http.Request) (playlistRequest, error) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return req, httputil.BadRequest("Name and description are required")
	}
	if msg := validate.PlaylistName(req.Name); msg != "" {
		return req, httputil.BadRequest(msg)
	}
	if msg := validate.PlaylistDescription(req.Description); msg != "" {
		return req, httputil.BadRequest(msg)
	}
	return req, nil
}

// playlistVideos returns the videos of playlistID that viewerID may see, in
// the order they were added.
func (h *Handler) playlistVideos(ctx context.Context, playlistID, viewerID string) ([]Video, error) {
	rows, err := h.db.Query(ctx,
		`SELECT `+ListColumns+`
		 FROM playlist_videos pv
		 JOIN videos v ON v.id = pv.video_id
		 JOIN users u ON u.id = v.owner_id
		 WHERE pv.playlist_id = $1 AND (v.is_published OR v.owner_id = $2)
		 ORDER BY pv.position`,
		playlistID, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	return CollectListVideos(rows)
}

func (h *Handler) loadPlaylist(ctx context.Context, playlistID, viewerID string) (Playlist, error) {
	p, err := scanPlaylist(h.db.QueryRow(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE id = $1`,
		playlistID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Playlist{}, httputil.NotFound("Playlist not found")
		}
		return Playlist{}, fmt.Errorf("load playlist: %w", err)
	}
	if p.Videos, err = h.playlistVideos(ctx, playlistID, viewerID); err != nil {
		return Playlist{}, err
	}
	p.TotalVideos = len(p.Videos)
	return p, nil
}

func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	req, err := playlistInput(r)
	if err != nil {
		return err
	}

	playlist, err := scanPlaylist(h.db.QueryRow(r.Context(),
		`INSERT INTO playlists (owner_id, name, description) VALUES ($1, $2, $3) RETURNING `+playlistColumns,
		userID, req.Name, req.Description,
	))
	if err != nil {
		return httputil.Internal("Something went wrong while creating the playlist", err)
	}

	httputil.WriteData(w, http.StatusCreated, playlist, "Playlist created successfully")
	return nil
}

func (h *Handler) UserPlaylists(w http.ResponseWriter, r *http.Request) error {
	requester := auth.UserIDFromContext(r.Context())
	userID, err := pathID(r, "userId")
	if err != nil {
		return err
	}
	if userID != requester {
		return httputil.Forbidden("You can only view your own playlists")
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT `+playlistColumns+` FROM playlists WHERE owner_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return httputil.Internal("failed to fetch playlists", err)
	}
	playlists := []Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return httputil.Internal("failed to scan playlist", err)
		}
		playlists = append(playlists, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return httputil.Internal("failed to fetch playlists", err)
	}

	if len(playlists) > 0 {
		if err := h.attachPlaylistVideos(r.Context(), playlists, userID); err != nil {
			return httputil.Internal("failed to fetch playlist videos", err)
		}
	}

	httputil.WriteData(w, http.StatusOK, playlists, "Playlists fetched successfully")
	return nil
}

// attachPlaylistVideos fills the videos of every playlist owned by ownerID
// with one query.
func (h *Handler) attachPlaylistVideos(ctx context.Context, playlists []Playlist, ownerID string) error {
	byID := make(map[string]*Playlist, len(playlists))
	for i := range playlists {
		byID[playlists[i].ID] = &playlists[i]
	}

	rows, err := h.db.Query(ctx,
		`SELECT pv.playlist_id, `+ListColumns+`
		 FROM playlist_videos pv
		 JOIN playlists p ON p.id = pv.playlist_id
		 JOIN videos v ON v.id = pv.video_id
		 JOIN users u ON u.id = v.owner_id
		 WHERE p.owner_id = $1 AND (v.is_published OR v.owner_id = $1)
		 ORDER BY pv.playlist_id, pv.position`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Video
		var playlistID string
		var createdAt time.Time
		if err := rows.Scan(&playlistID,
			&v.ID, &v.Title, &v.Description, &v.Thumbnail, &v.Duration, &v.Views, &v.IsPublished,
			&createdAt, &v.Owner.ID, &v.Owner.Username, &v.Owner.Avatar,
		); err != nil {
			return err
		}
		v.CreatedAt = formatTime(createdAt)
		if p, ok := byID[playlistID]; ok {
			p.Videos = append(p.Videos, v)
			p.TotalVideos++
		}
	}
	return rows.Err()
}

func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) error {
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		return err
	}

	playlist, err := h.loadPlaylist(r.Context(), playlistID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		return err
	}

	httputil.WriteData(w, http.StatusOK, playlist, "Playlist fetched successfully")
	return nil
}

func (h *Handler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		return err
	}
	req, err := playlistInput(r)
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "playlists", playlistID, userID,
		"Playlist not found", "You are not allowed to modify this playlist"); err != nil {
		return err
	}

	if _, err := h.db.Exec(r.Context(),
		`UPDATE playlists SET name = $1, description = $2, updated_at = now() WHERE id = $3`,
		req.Name, req.Description, playlistID,
	); err != nil {
		return httputil.Internal("failed to update playlist", err)
	}

	playlist, err := h.loadPlaylist(r.Context(), playlistID, userID)
	if err != nil {
		return err
	}

	httputil.WriteData(w, http.StatusOK, playlist, "Playlist updated successfully")
	return nil
}

func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "playlists", playlistID, userID,
		"Playlist not found", "You are not allowed to delete this playlist"); err != nil {
		return err
	}

	if _, err := h.db.Exec(r.Context(), `DELETE FROM playlists WHERE id = $1`, playlistID); err != nil {
		return httputil.Internal("failed to delete playlist", err)
	}

	httputil.WriteData(w, http.StatusOK, httputil.Empty, "Playlist deleted successfully")
	return nil
}

func (h *Handler) AddToPlaylist(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "playlists", playlistID, userID,
		"Playlist not found", "You are not allowed to modify this playlist"); err != nil {
		return err
	}
	if err := h.visibleVideo(r.Context(), videoID, userID); err != nil {
		return err
	}

	// A video already in the playlist keeps its position.
	if _, err := h.db.Exec(r.Context(),
		`INSERT INTO playlist_videos (playlist_id, video_id, position)
		 VALUES ($1, $2, COALESCE((SELECT MAX(position) + 1 FROM playlist_videos WHERE playlist_id = $1), 0))
		 ON CONFLICT (playlist_id, video_id) DO NOTHING`,
		playlistID, videoID,
	); err != nil {
		return httputil.Internal("failed to add video to playlist", err)
	}

	playlist, err := h.loadPlaylist(r.Context(), playlistID, userID)
	if err != nil {
		return err
	}

	httputil.WriteData(w, http.StatusOK, playlist, "Video added to playlist successfully")
	return nil
}

func (h *Handler) RemoveFromPlaylist(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "playlists", playlistID, userID,
		"Playlist not found", "You are not allowed to modify this playlist"); err != nil {
		return err
	}

	if _, err := h.db.Exec(r.Context(),
		`DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`,
		playlistID, videoID,
	); err != nil {
		return httputil.Internal("failed to remove video from playlist", err)
	}

	playlist, err := h.loadPlaylist(r.Context(), playlistID, userID)
	if err != nil {
		return err
	}

	httputil.WriteData(w, http.StatusOK, playlist, "Video removed from playlist successfully")
	return nil
}
