package video

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/vidtube/vidtube/internal/httputil"
)

var commentRowColumns = []string{
	"id", "content", "video_id", "created_at", "updated_at", "owner_id", "username", "full_name", "avatar_url", "likes",
}

func commentRowValues(content, ownerID string) []any {
	return []any{testCommentID, content, testVideoID, testTime, testTime, ownerID, "alice", "Alice Example", "", int64(2)}
}

func commentBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(commentRequest{Content: content})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestAddComment_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectVisibleVideo(mock, testVideoID, otherUserID, true)
	mock.ExpectQuery(`INSERT INTO comments \(video_id, owner_id, content\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs(testVideoID, testUserID, "Great video").
		WillReturnRows(pgxmock.NewRows(commentRowColumns).AddRow(commentRowValues("Great video", testUserID)...))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPost, "/api/v1/comments/{videoId}", httputil.HandlerFunc(handler.AddComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPost, "/api/v1/comments/"+testVideoID, commentBody(t, "  Great video  ")))

	expectStatus(t, rec, http.StatusCreated)
	var comment Comment
	decodeData(t, decodeEnvelope(t, rec), &comment)
	if comment.Content != "Great video" || comment.Owner.FullName != "Alice Example" || comment.VideoID != testVideoID {
		t.Errorf("unexpected comment: %+v", comment)
	}
	expectMet(t, mock)
}

func TestAddComment_EmptyContent(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPost, "/api/v1/comments/{videoId}", httputil.HandlerFunc(handler.AddComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPost, "/api/v1/comments/"+testVideoID, commentBody(t, "   ")))

	expectStatus(t, rec, http.StatusBadRequest)
	if env := decodeEnvelope(t, rec); env.Message != "Content is required" {
		t.Errorf("unexpected message %q", env.Message)
	}
	expectMet(t, mock)
}

func TestAddComment_TooLong(t *testing.T) {
	_, handler, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPost, "/api/v1/comments/{videoId}", httputil.HandlerFunc(handler.AddComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPost, "/api/v1/comments/"+testVideoID, commentBody(t, strings.Repeat("a", 2001))))

	expectStatus(t, rec, http.StatusBadRequest)
}

func TestAddComment_VideoNotFound(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT owner_id, is_published FROM videos WHERE id = \$1`).
		WithArgs(testVideoID).
		WillReturnError(pgx.ErrNoRows)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPost, "/api/v1/comments/{videoId}", httputil.HandlerFunc(handler.AddComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPost, "/api/v1/comments/"+testVideoID, commentBody(t, "hi")))

	expectStatus(t, rec, http.StatusNotFound)
	expectMet(t, mock)
}

func TestListComments_Paginates(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectVisibleVideo(mock, testVideoID, otherUserID, true)
	cols := append(append([]string{}, commentRowColumns...), "total")
	mock.ExpectQuery(`FROM comments c JOIN users u ON u.id = c.owner_id`).
		WithArgs(testVideoID, 1, 1).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append(commentRowValues("second", otherUserID), int64(3))...))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodGet, "/api/v1/comments/{videoId}", httputil.HandlerFunc(handler.ListComments))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodGet, "/api/v1/comments/"+testVideoID+"?page=2&limit=1", nil))

	expectStatus(t, rec, http.StatusOK)
	var page commentPage
	decodeData(t, decodeEnvelope(t, rec), &page)
	if page.TotalComments != 3 || page.TotalPages != 3 || page.Page != 2 || len(page.Comments) != 1 {
		t.Errorf("unexpected page: %+v", page)
	}
	if page.Comments[0].LikesCount != 2 {
		t.Errorf("expected likes count 2, got %d", page.Comments[0].LikesCount)
	}
	expectMet(t, mock)
}

func TestUpdateComment_NotOwner(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "comments", testCommentID, otherUserID)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPatch, "/api/v1/comments/c/{commentId}", httputil.HandlerFunc(handler.UpdateComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPatch, "/api/v1/comments/c/"+testCommentID, commentBody(t, "edited")))

	expectStatus(t, rec, http.StatusForbidden)
	expectMet(t, mock)
}

func TestUpdateComment_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "comments", testCommentID, testUserID)
	mock.ExpectQuery(`UPDATE comments SET content = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs("edited", testCommentID).
		WillReturnRows(pgxmock.NewRows(commentRowColumns).AddRow(commentRowValues("edited", testUserID)...))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPatch, "/api/v1/comments/c/{commentId}", httputil.HandlerFunc(handler.UpdateComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPatch, "/api/v1/comments/c/"+testCommentID, commentBody(t, "edited")))

	expectStatus(t, rec, http.StatusOK)
	expectMet(t, mock)
}

func TestDeleteComment_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "comments", testCommentID, testUserID)
	mock.ExpectExec(`DELETE FROM comments WHERE id = \$1`).
		WithArgs(testCommentID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodDelete, "/api/v1/comments/c/{commentId}", httputil.HandlerFunc(handler.DeleteComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodDelete, "/api/v1/comments/c/"+testCommentID, nil))

	expectStatus(t, rec, http.StatusOK)
	if env := decodeEnvelope(t, rec); env.Message != "Comment deleted successfully" {
		t.Errorf("unexpected message %q", env.Message)
	}
	expectMet(t, mock)
}

func TestDeleteComment_NotFound(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT owner_id FROM comments WHERE id = \$1`).
		WithArgs(testCommentID).
		WillReturnError(pgx.ErrNoRows)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodDelete, "/api/v1/comments/c/{commentId}", httputil.HandlerFunc(handler.DeleteComment))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodDelete, "/api/v1/comments/c/"+testCommentID, nil))

	expectStatus(t, rec, http.StatusNotFound)
	if env := decodeEnvelope(t, rec); env.Message != "Comment not found" {
		t.Errorf("unexpected message %q", env.Message)
	}
	expectMet(t, mock)
}

func TestListComments_PagePastEndKeepsTotal(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectVisibleVideo(mock, testVideoID, otherUserID, true)
	mock.ExpectQuery(`FROM comments c JOIN users u ON u.id = c.owner_id`).
		WithArgs(testVideoID, 10, 40).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, commentRowColumns...), "total")))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments WHERE video_id = \$1`).
		WithArgs(testVideoID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodGet, "/api/v1/comments/{videoId}", httputil.HandlerFunc(handler.ListComments))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodGet, "/api/v1/comments/"+testVideoID+"?page=5", nil))

	expectStatus(t, rec, http.StatusOK)
	var page commentPage
	decodeData(t, decodeEnvelope(t, rec), &page)
	if page.TotalComments != 12 || page.TotalPages != 2 || len(page.Comments) != 0 {
		t.Errorf("unexpected page: %+v", page)
	}
	expectMet(t, mock)
}
