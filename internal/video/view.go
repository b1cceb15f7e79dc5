package video

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
	"github.com/vidtube/vidtube/internal/geoip"
)

func deviceType(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	switch {
	case ua.Bot():
		return "bot"
	case strings.Contains(userAgent, "iPad") || strings.Contains(userAgent, "Tablet"):
		return "tablet"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}

func (h *Handler) country(r *http.Request) string {
	if h.geo == nil {
		return ""
	}
	return h.geo.Country(geoip.ClientIP(r))
}

// recordView counts a view, stores where it came from and moves the video to
// the top of the viewer's watch history. Failures are logged and do not fail
// the request.
func (h *Handler) recordView(ctx context.Context, r *http.Request, videoID, viewerID string) {
	if _, err := h.db.Exec(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = $1`,
		videoID,
	); err != nil {
		slog.Error("view: failed to increment views", "video_id", videoID, "error", err)
		return
	}

	if _, err := h.db.Exec(ctx,
		`INSERT INTO video_views (video_id, viewer_id, device, country) VALUES ($1, $2, $3, $4)`,
		videoID, viewerID, deviceType(r.UserAgent()), h.country(r),
	); err != nil {
		slog.Error("view: failed to record view", "video_id", videoID, "error", err)
	}

	if _, err := h.db.Exec(ctx,
		`INSERT INTO watch_history (user_id, video_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = now()`,
		viewerID, videoID,
	); err != nil {
		slog.Error("view: failed to update watch history", "video_id", videoID, "error", err)
	}
}
