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

type Comment struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	VideoID    string `json:"video"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Owner      Owner  `json:"owner"`
	LikesCount int64  `json:"likesCount"`
}

type commentPage struct {
	Comments      []Comment `json:"comments"`
	Page          int       `json:"page"`
	TotalPages    int       `json:"totalPages"`
	TotalComments int64     `json:"totalComments"`
}

type commentRequest struct {
	Content string `json:"content"`
}

const commentColumns = `c.id, c.content, c.video_id, c.created_at, c.updated_at, u.id, u.username, u.full_name, u.avatar_url,
	(SELECT COUNT(*) FROM likes l WHERE l.comment_id = c.id)`

func scanComment(row pgx.Row, extra ...any) (Comment, error) {
	var c Comment
	var createdAt, updatedAt time.Time
	dest := []any{
		&c.ID, &c.Content, &c.VideoID, &createdAt, &updatedAt,
		&c.Owner.ID, &c.Owner.Username, &c.Owner.FullName, &c.Owner.Avatar, &c.LikesCount,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Comment{}, err
	}
	c.CreatedAt = formatTime(createdAt)
	c.UpdatedAt = formatTime(updatedAt)
	return c, nil
}

func commentContent(r *http.Request) (string, error) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", httputil.BadRequest("Content is required")
	}
	if msg := validate.Comment(content); msg != "" {
		return "", httputil.BadRequest(msg)
	}
	return content, nil
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) error {
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}
	if err := h.visibleVideo(r.Context(), videoID, auth.UserIDFromContext(r.Context())); err != nil {
		return err
	}

	page := httputil.ParsePage(r)
	rows, err := h.db.Query(r.Context(),
		`SELECT `+commentColumns+`, COUNT(*) OVER()
		 FROM comments c JOIN users u ON u.id = c.owner_id
		 WHERE c.video_id = $1
		 ORDER BY c.created_at DESC, c.id
		 LIMIT $2 OFFSET $3`,
		videoID, page.Limit, page.Offset(),
	)
	if err != nil {
		return httputil.Internal("failed to list comments", err)
	}
	defer rows.Close()

	result := commentPage{Comments: []Comment{}, Page: page.Page}
	for rows.Next() {
		c, err := scanComment(rows, &result.TotalComments)
		if err != nil {
			return httputil.Internal("failed to scan comment", err)
		}
		result.Comments = append(result.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return httputil.Internal("failed to list comments", err)
	}

	// The window count is empty past the last page.
	if len(result.Comments) == 0 && page.Page > 1 {
		if err := h.db.QueryRow(r.Context(),
			`SELECT COUNT(*) FROM comments WHERE video_id = $1`,
			videoID,
		).Scan(&result.TotalComments); err != nil {
			return httputil.Internal("failed to count comments", err)
		}
	}
	result.TotalPages = httputil.TotalPages(result.TotalComments, page.Limit)

	httputil.WriteData(w, http.StatusOK, result, "Comments fetched successfully")
	return nil
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}
	content, err := commentContent(r)
	if err != nil {
		return err
	}
	if err := h.visibleVideo(r.Context(), videoID, userID); err != nil {
		return err
	}

	comment, err := scanComment(h.db.QueryRow(r.Context(),
		`WITH c AS (
			INSERT INTO comments (video_id, owner_id, content) VALUES ($1, $2, $3)
			RETURNING *
		)
		SELECT `+commentColumns+` FROM c JOIN users u ON u.id = c.owner_id`,
		videoID, userID, content,
	))
	if err != nil {
		return httputil.Internal("Something went wrong while adding the comment", err)
	}

	httputil.WriteData(w, http.StatusCreated, comment, "Comment added successfully")
	return nil
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	commentID, err := pathID(r, "commentId")
	if err != nil {
		return err
	}
	content, err := commentContent(r)
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "comments", commentID, userID,
		"Comment not found", "You are not allowed to update this comment"); err != nil {
		return err
	}

	comment, err := scanComment(h.db.QueryRow(r.Context(),
		`WITH c AS (
			UPDATE comments SET content = $1, updated_at = now() WHERE id = $2
			RETURNING *
		)
		SELECT `+commentColumns+` FROM c JOIN users u ON u.id = c.owner_id`,
		content, commentID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("Comment not found")
		}
		return httputil.Internal("failed to update comment", err)
	}

	httputil.WriteData(w, http.StatusOK, comment, "Comment updated successfully")
	return nil
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	commentID, err := pathID(r, "commentId")
	if err != nil {
		return err
	}
	if err := h.requireOwner(r.Context(), "comments", commentID, userID,
		"Comment not found", "You are not allowed to delete this comment"); err != nil {
		return err
	}

	if _, err := h.db.Exec(r.Context(), `DELETE FROM comments WHERE id = $1`, commentID); err != nil {
		return httputil.Internal("failed to delete comment", err)
	}

	httputil.WriteData(w, http.StatusOK, httputil.Empty, "Comment deleted successfully")
	return nil
}
