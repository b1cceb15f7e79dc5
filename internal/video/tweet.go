package video

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/validate"
)

type Tweet struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Owner      Owner  `json:"owner"`
	LikesCount int64  `json:"likesCount"`
}

type tweetRequest struct {
	Content string `json:"content"`
}

const tweetColumns = `t.id, t.content, t.created_at, t.updated_at, u.id, u.username, u.full_name, u.avatar_url,
	(SELECT COUNT(*) FROM likes l WHERE l.tweet_id = t.id)`

func scanTweet(row pgx.Row) (Tweet, error) {
	var t Tweet
	var createdAt, updatedAt time.Time
	if err := row.Scan(&t.ID, &t.Content, &createdAt, &updatedAt,
		&t.Owner.ID, &t.Owner.Username, &t.Owner.FullName, &t.Owner.Avatar, &t.LikesCount); err != nil {
		return Tweet{}, err
	}
	t.CreatedAt = formatTime(createdAt)
	t.UpdatedAt = formatTime(updatedAt)
	return t, nil
}

func tweetContent(r *http.Request) (string, error) {
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", httputil.BadRequest("Content is required")
	}
	if msg := validate.Tweet(content); msg != "" {
		return "", httputil.BadRequest(msg)
	}
	return content, nil
}

func (h *Handler) CreateTweet(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	content, err := tweetContent(r)
	if err != nil {
		return err
	}

	tweet, err := scanTweet(h.db.QueryRow(r.Context(),
		`WITH t AS (
			INSERT INTO tweets (owner_id, content) VALUES ($1, $2)
			RETURNING *
		)
		SELECT `+tweetColumns+` FROM t JOIN users u ON u.id = t.owner_id`,
		userID, content,
	))
	if err != nil {
		return httputil.Internal("Something went wrong while creating the tweet", err)
	}

	httputil.WriteData(w, http.StatusCreated, tweet, "Tweet created successfully")
	return nil
}

func (h *Handler) UserTweets(w http.ResponseWriter, r *http.Request) error {
	requester := auth.UserIDFromContext(r.Context())
	userID, err := pathID(r, "userId")
	if err != nil {
		return err
	}
	if userID != requester {
		return httputil.Forbidden("You can only view your own tweets")
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT `+tweetColumns+`
		 FROM tweets t JOIN users u ON u.id = t.owner_id
		 WHERE t.owner_id = $1
		 ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return httputil.Internal("failed to fetch tweets", err)
	}
	defer rows.Close()

	tweets := []Tweet{}
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return httputil.Internal("failed to scan tweet", err)
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return httputil.Internal("failed to fetch tweets", err)
	}

	httputil.WriteData(w, http.StatusOK, tweets, "Tweets fetched successfully")
	return nil
}

func (h *Handler) UpdateTweet(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		return err
	}
	content, err := tweetContent(r)
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "tweets", tweetID, userID,
		"Tweet not found", "You are not allowed to update this tweet"); err != nil {
		return err
	}

	tweet, err := scanTweet(h.db.QueryRow(r.Context(),
		`WITH t AS (
			UPDATE tweets SET content = $1, updated_at = now() WHERE id = $2
			RETURNING *
		)
		SELECT `+tweetColumns+` FROM t JOIN users u ON u.id = t.owner_id`,
		content, tweetID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Tweet not found")
		}
		return httputil.Internal("failed to update tweet", err)
	}

	httputil.WriteData(w, http.StatusOK, tweet, "Tweet updated successfully")
	return nil
}

func (h *Handler) DeleteTweet(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "tweets", tweetID, userID,
		"Tweet not found", "You are not allowed to delete this tweet"); err != nil {
		return err
	}

	if _, err := h.db.Exec(r.Context(), `DELETE FROM tweets WHERE id = $1`, tweetID); err != nil {
		return httputil.Internal("failed to delete tweet", err)
	}

	httputil.WriteData(w, http.StatusOK, httputil.Empty, "Tweet deleted successfully")
	return nil
}
