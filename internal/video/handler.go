package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/database"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/validate"
)

type ObjectStorage interface {
	UploadFile(ctx context.Context, key string, filePath string, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// CountryResolver maps a client address to an ISO country code.
type CountryResolver interface {
	Country(ip string) string
}

// DurationProber returns the duration in seconds of the media file at path.
type DurationProber func(ctx context.Context, path string) float64

type Handler struct {
	db             database.DBTX
	storage        ObjectStorage
	maxUploadBytes int64
	geo            CountryResolver
	probe          DurationProber
}

func NewHandler(db database.DBTX, s ObjectStorage, maxUploadBytes int64) *Handler {
	return &Handler{
		db:             db,
		storage:        s,
		maxUploadBytes: maxUploadBytes,
		probe:          ProbeDuration,
	}
}

func (h *Handler) SetCountryResolver(r CountryResolver) {
	h.geo = r
}

func (h *Handler) SetDurationProber(p DurationProber) {
	h.probe = p
}

// pathID reads a URL parameter that must hold a resource identifier.
func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if !validate.ID(id) {
		return "", httputil.BadRequest("Invalid " + name)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return httputil.BadRequest("invalid request body")
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func mediaKey(prefix, ownerID string, upload *httputil.Upload) string {
	return fmt.Sprintf("%s/%s/%s%s", prefix, ownerID, uuid.NewString(), upload.Ext())
}

// ownerOf returns the owner of the row id in table, or a 404 carrying
// notFound when there is no such row.
func (h *Handler) ownerOf(ctx context.Context, table, id, notFound string) (string, error) {
	var ownerID string
	err := h.db.QueryRow(ctx, `SELECT owner_id FROM `+table+` WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", httputil.NotFound(notFound)
		}
		return "", fmt.Errorf("load %s owner: %w", table, err)
	}
	return ownerID, nil
}

// requireOwner fails with 404 when the row is missing and 403 when userID
// does not own it.
func (h *Handler) requireOwner(ctx context.Context, table, id, userID, notFound, forbidden string) error {
	ownerID, err := h.ownerOf(ctx, table, id, notFound)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return httputil.Forbidden(forbidden)
	}
	return nil
}

func (h *Handler) userExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := h.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// visibleVideo fails with 404 unless the video exists and is published or
// owned by userID.
func (h *Handler) visibleVideo(ctx context.Context, videoID, userID string) error {
	var ownerID string
	var published bool
	err := h.db.QueryRow(ctx,
		`SELECT owner_id, is_published FROM videos WHERE id = $1`,
		videoID,
	).Scan(&ownerID, &published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Video not found")
		}
		return fmt.Errorf("load video: %w", err)
	}
	if !published && ownerID != userID {
		return httputil.NotFound("Video not found")
	}
	return nil
}

// deleteObjects removes media in the background. Failures are logged only.
func (h *Handler) deleteObjects(keys ...string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		for _, key := range keys {
			if key == "" {
				continue
			}
			if err := h.storage.DeleteObject(ctx, key); err != nil {
				slog.Error("video: failed to delete object", "key", key, "error", err)
			}
		}
	}()
}
