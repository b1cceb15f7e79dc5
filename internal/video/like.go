package video

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/database"
	"github.com/vidtube/vidtube/internal/httputil"
)

type Like struct {
	ID        string  `json:"id"`
	VideoID   *string `json:"video,omitempty"`
	CommentID *string `json:"comment,omitempty"`
	TweetID   *string `json:"tweet,omitempty"`
	LikedBy   string  `json:"likedBy"`
	CreatedAt string  `json:"createdAt"`
}

// likeTarget describes one kind of likeable row.
type likeTarget struct {
	param  string
	table  string
	column string
	label  string
}

var (
	videoLike   = likeTarget{param: "videoId", table: "videos", column: "video_id", label: "Video"}
	commentLike = likeTarget{param: "commentId", table: "comments", column: "comment_id", label: "Comment"}
	tweetLike   = likeTarget{param: "tweetId", table: "tweets", column: "tweet_id", label: "Tweet"}
)

func (h *Handler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) error {
	return h.toggleLike(w, r, videoLike)
}

func (h *Handler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) error {
	return h.toggleLike(w, r, commentLike)
}

func (h *Handler) ToggleTweetLike(w http.ResponseWriter, r *http.Request) error {
	return h.toggleLike(w, r, tweetLike)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, target likeTarget) error {
	userID := auth.UserIDFromContext(r.Context())
	targetID, err := pathID(r, target.param)
	if err != nil {
		return err
	}

	if target == videoLike {
		if err := h.visibleVideo(r.Context(), targetID, userID); err != nil {
			return err
		}
	} else {
		var exists bool
		if err := h.db.QueryRow(r.Context(),
			`SELECT EXISTS(SELECT 1 FROM `+target.table+` WHERE id = $1)`,
			targetID,
		).Scan(&exists); err != nil {
			return httputil.Internal(fmt.Sprintf("failed to fetch %s", target.table), err)
		}
		if !exists {
			return httputil.NotFound(target.label + " not found")
		}
	}

	tag, err := h.db.Exec(r.Context(),
		`DELETE FROM likes WHERE `+target.column+` = $1 AND liked_by = $2`,
		targetID, userID,
	)
	if err != nil {
		return httputil.Internal("failed to toggle like", err)
	}
	if tag.RowsAffected() > 0 {
		httputil.WriteData(w, http.StatusOK, httputil.Empty, target.label+" unliked successfully")
		return nil
	}

	like := Like{LikedBy: userID}
	var createdAt time.Time
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO likes (`+target.column+`, liked_by) VALUES ($1, $2) RETURNING id, created_at`,
		targetID, userID,
	).Scan(&like.ID, &createdAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return httputil.Conflict(target.label + " is already liked")
		}
		return httputil.Internal("failed to toggle like", err)
	}
	like.CreatedAt = formatTime(createdAt)
	switch target {
	case videoLike:
		like.VideoID = &targetID
	case commentLike:
		like.CommentID = &targetID
	case tweetLike:
		like.TweetID = &targetID
	}

	httputil.WriteData(w, http.StatusOK, like, target.label+" liked successfully")
	return nil
}

func (h *Handler) LikedVideos(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())

	rows, err := h.db.Query(r.Context(),
		`SELECT `+ListColumns+`
		 FROM likes l
		 JOIN videos v ON v.id = l.video_id
		 JOIN users u ON u.id = v.owner_id
		 WHERE l.liked_by = $1 AND (v.is_published OR v.owner_id = $1)
		 ORDER BY l.created_at DESC`,
		userID,
	)
	if err != nil {
		return httputil.Internal("failed to fetch liked videos", err)
	}
	videos, err := CollectListVideos(rows)
	if err != nil {
		return httputil.Internal("failed to fetch liked videos", err)
	}

	httputil.WriteData(w, http.StatusOK, videos, "Liked videos fetched successfully")
	return nil
}
