package video

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/httputil"
)

type channelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalTweets      int64 `json:"totalTweets"`
}

func (h *Handler) ChannelStats(w http.ResponseWriter, r *http.Request) error {
	channelID, err := pathID(r, "channelId")
	if err != nil {
		return err
	}

	var stats channelStats
	err = h.db.QueryRow(r.Context(),
		`SELECT
		    (SELECT COUNT(*) FROM videos WHERE owner_id = u.id),
		    (SELECT COALESCE(SUM(views), 0)::bigint FROM videos WHERE owner_id = u.id),
		    (SELECT COUNT(*) FROM subscriptions WHERE channel_id = u.id),
		    (SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = u.id),
		    (SELECT COUNT(*) FROM tweets WHERE owner_id = u.id)
		 FROM users u WHERE u.id = $1`,
		channelID,
	).Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalSubscribers, &stats.TotalLikes, &stats.TotalTweets)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Channel not found")
		}
		return httputil.Internal("failed to fetch channel stats", err)
	}

	httputil.WriteData(w, http.StatusOK, stats, "Channel stats fetched successfully")
	return nil
}

func (h *Handler) ChannelVideos(w http.ResponseWriter, r *http.Request) error {
	channelID, err := pathID(r, "channelId")
	if err != nil {
		return err
	}
	exists, err := h.userExists(r.Context(), channelID)
	if err != nil {
		return httputil.Internal("failed to fetch channel", err)
	}
	if !exists {
		return httputil.NotFound("Channel not found")
	}

	sql := `SELECT ` + ListColumns + `
	 FROM videos v JOIN users u ON u.id = v.owner_id
	 WHERE v.owner_id = $1`
	if auth.UserIDFromContext(r.Context()) != channelID {
		sql += ` AND v.is_published = true`
	}
	sql += ` ORDER BY v.created_at DESC`

	rows, err := h.db.Query(r.Context(), sql, channelID)
	if err != nil {
		return httputil.Internal("failed to fetch channel videos", err)
	}
	videos, err := CollectListVideos(rows)
	if err != nil {
		return httputil.Internal("failed to fetch channel videos", err)
	}

	httputil.WriteData(w, http.StatusOK, videos, "Channel videos fetched successfully")
	return nil
}
