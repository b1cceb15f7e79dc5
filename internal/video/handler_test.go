package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/vidtube/vidtube/internal/auth"
)

const (
	testJWTSecret   = "test-secret-for-video-tests"
	testUserID      = "550e8400-e29b-41d4-a716-446655440000"
	otherUserID     = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	testVideoID     = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	testCommentID   = "9b2f4c1e-3d5a-4e6f-8a7b-1c2d3e4f5a6b"
	testTweetID     = "1f0e9d8c-7b6a-4c5d-9e8f-0a1b2c3d4e5f"
	testPlaylistID  = "a3bb189e-8bf9-4888-9912-ace4e6543002"
	testUserAgentUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockStorage struct {
	mu        sync.Mutex
	uploaded  []string
	uploadErr error
	deleteErr error
	deleted   chan string
}

func newMockStorage() *mockStorage {
	return &mockStorage{deleted: make(chan string, 10)}
}

func (m *mockStorage) UploadFile(_ context.Context, key string, _ string, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploaded = append(m.uploaded, key)
	return "https://cdn.example.com/media/" + key, nil
}

func (m *mockStorage) DeleteObject(_ context.Context, key string) error {
	m.deleted <- key
	return m.deleteErr
}

func (m *mockStorage) uploadedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.uploaded...)
}

// waitDeleted collects n deleted keys or fails after a second.
func (m *mockStorage) waitDeleted(t *testing.T, n int) []string {
	t.Helper()
	var keys []string
	for len(keys) < n {
		select {
		case key := <-m.deleted:
			keys = append(keys, key)
		case <-time.After(time.Second):
			t.Fatalf("expected %d deletions, got %v", n, keys)
		}
	}
	return keys
}

type stubCountry string

func (s stubCountry) Country(string) string { return string(s) }

func newTestHandler(t *testing.T) (pgxmock.PgxPoolIface, *Handler, *mockStorage) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)

	storage := newMockStorage()
	handler := NewHandler(mock, storage, 10<<20)
	handler.SetDurationProber(func(context.Context, string) float64 { return 12.5 })
	return mock, handler, storage
}

func authenticatedRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()
	return authenticatedRequestAs(t, testUserID, method, target, body)
}

func authenticatedRequestAs(t *testing.T, userID, method, target string, body []byte) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	token, err := auth.GenerateAccessToken(testJWTSecret, userID)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func newAuthMiddleware() func(http.Handler) http.Handler {
	return auth.NewHandler(nil, testJWTSecret, false).Middleware
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope %q: %v", rec.Body.String(), err)
	}
	if env.StatusCode != rec.Code {
		t.Errorf("envelope statusCode %d does not match HTTP status %d", env.StatusCode, rec.Code)
	}
	return env
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}

type filePart struct {
	filename    string
	contentType string
	content     string
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatal(err)
		}
	}
	for name, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, f.filename))
		header.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(f.content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]filePart) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, fields, files)
	req := authenticatedRequest(t, method, target, body.Bytes())
	req.Header.Set("Content-Type", contentType)
	return req
}

var videoRowColumns = []string{
	"id", "title", "description", "video_file_url", "thumbnail_url", "duration", "views", "is_published",
	"created_at", "updated_at", "owner_id", "username", "full_name", "avatar_url",
}

func videoRowValues(id, ownerID string, published bool) []any {
	return []any{
		id, "My video", "About it", "https://cdn.example.com/media/videos/v.mp4", "https://cdn.example.com/media/thumbnails/t.png",
		12.5, int64(41), published, testTime, testTime, ownerID, "alice", "Alice Example", "",
	}
}

var listRowColumns = []string{
	"id", "title", "description", "thumbnail_url", "duration", "views", "is_published",
	"created_at", "owner_id", "username", "avatar_url",
}

func listRowValues(id, ownerID string) []any {
	return []any{
		id, "My video", "About it", "https://cdn.example.com/media/thumbnails/t.png",
		12.5, int64(41), true, testTime, ownerID, "alice", "",
	}
}

func expectVisibleVideo(mock pgxmock.PgxPoolIface, videoID, ownerID string, published bool) {
	mock.ExpectQuery(`SELECT owner_id, is_published FROM videos WHERE id = \$1`).
		WithArgs(videoID).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id", "is_published"}).AddRow(ownerID, published))
}

func expectOwner(mock pgxmock.PgxPoolIface, table, id, ownerID string) {
	mock.ExpectQuery(`SELECT owner_id FROM ` + table + ` WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id"}).AddRow(ownerID))
}

func expectUserExists(mock pgxmock.PgxPoolIface, id string, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(exists))
}
