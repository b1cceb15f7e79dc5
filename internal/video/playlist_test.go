package video

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/vidtube/vidtube/internal/httputil"
)

var playlistRowColumns = []string{"id", "name", "description", "owner_id", "created_at", "updated_at"}

func playlistRow(ownerID string) *pgxmock.Rows {
	return pgxmock.NewRows(playlistRowColumns).AddRow(testPlaylistID, "Favourites", "Best of", ownerID, testTime, testTime)
}

func playlistBody(t *testing.T, name, description string) []byte {
	t.Helper()
	body, err := json.Marshal(playlistRequest{Name: name, Description: description})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func expectLoadPlaylist(mock pgxmock.PgxPoolIface, ownerID, viewerID string, videos *pgxmock.Rows) {
	mock.ExpectQuery(`SELECT id, name, description, owner_id, created_at, updated_at FROM playlists WHERE id = \$1`).
		WithArgs(testPlaylistID).
		WillReturnRows(playlistRow(ownerID))
	mock.ExpectQuery(`FROM playlist_videos pv`).
		WithArgs(testPlaylistID, viewerID).
		WillReturnRows(videos)
}

func TestCreatePlaylist_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	mock.ExpectQuery(`INSERT INTO playlists \(owner_id, name, description\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs(testUserID, "Favourites", "Best of").
		WillReturnRows(playlistRow(testUserID))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPost, "/api/v1/playlist", httputil.HandlerFunc(handler.CreatePlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPost, "/api/v1/playlist", playlistBody(t, "Favourites", "Best of")))

	expectStatus(t, rec, http.StatusCreated)
	var playlist Playlist
	decodeData(t, decodeEnvelope(t, rec), &playlist)
	if playlist.ID != testPlaylistID || playlist.Videos == nil {
		t.Errorf("unexpected playlist: %+v", playlist)
	}
	expectMet(t, mock)
}

func TestCreatePlaylist_RequiresNameAndDescription(t *testing.T) {
	_, handler, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPost, "/api/v1/playlist", httputil.HandlerFunc(handler.CreatePlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPost, "/api/v1/playlist", playlistBody(t, "Favourites", " ")))

	expectStatus(t, rec, http.StatusBadRequest)
	if env := decodeEnvelope(t, rec); env.Message != "Name and description are required" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestUserPlaylists_OnlyOwnPlaylists(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodGet, "/api/v1/playlist/user/{userId}", httputil.HandlerFunc(handler.UserPlaylists))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodGet, "/api/v1/playlist/user/"+otherUserID, nil))

	expectStatus(t, rec, http.StatusForbidden)
	expectMet(t, mock)
}

func TestUserPlaylists_AttachesVideos(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	mock.ExpectQuery(`FROM playlists WHERE owner_id = \$1 ORDER BY created_at DESC`).
		WithArgs(testUserID).
		WillReturnRows(playlistRow(testUserID))
	cols := append([]string{"playlist_id"}, listRowColumns...)
	mock.ExpectQuery(`JOIN playlists p ON p.id = pv.playlist_id`).
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append([]any{testPlaylistID}, listRowValues(testVideoID, otherUserID)...)...))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodGet, "/api/v1/playlist/user/{userId}", httputil.HandlerFunc(handler.UserPlaylists))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodGet, "/api/v1/playlist/user/"+testUserID, nil))

	expectStatus(t, rec, http.StatusOK)
	var playlists []Playlist
	decodeData(t, decodeEnvelope(t, rec), &playlists)
	if len(playlists) != 1 || playlists[0].TotalVideos != 1 || playlists[0].Videos[0].ID != testVideoID {
		t.Errorf("unexpected playlists: %+v", playlists)
	}
	expectMet(t, mock)
}

func TestUserPlaylists_EmptyList(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	mock.ExpectQuery(`FROM playlists WHERE owner_id = \$1`).
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows(playlistRowColumns))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodGet, "/api/v1/playlist/user/{userId}", httputil.HandlerFunc(handler.UserPlaylists))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodGet, "/api/v1/playlist/user/"+testUserID, nil))

	expectStatus(t, rec, http.StatusOK)
	if env := decodeEnvelope(t, rec); string(env.Data) != "[]" {
		t.Errorf("expected empty array, got %s", env.Data)
	}
	expectMet(t, mock)
}

func TestGetPlaylist_NotFound(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	mock.ExpectQuery(`FROM playlists WHERE id = \$1`).
		WithArgs(testPlaylistID).
		WillReturnError(pgx.ErrNoRows)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodGet, "/api/v1/playlist/{playlistId}", httputil.HandlerFunc(handler.GetPlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodGet, "/api/v1/playlist/"+testPlaylistID, nil))

	expectStatus(t, rec, http.StatusNotFound)
	expectMet(t, mock)
}

func TestAddToPlaylist_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "playlists", testPlaylistID, testUserID)
	expectVisibleVideo(mock, testVideoID, otherUserID, true)
	mock.ExpectExec(`INSERT INTO playlist_videos \(playlist_id, video_id, position\)`).
		WithArgs(testPlaylistID, testVideoID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectLoadPlaylist(mock, testUserID, testUserID,
		pgxmock.NewRows(listRowColumns).AddRow(listRowValues(testVideoID, otherUserID)...))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPatch, "/api/v1/playlist/add/{videoId}/{playlistId}", httputil.HandlerFunc(handler.AddToPlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPatch, "/api/v1/playlist/add/"+testVideoID+"/"+testPlaylistID, nil))

	expectStatus(t, rec, http.StatusOK)
	var playlist Playlist
	decodeData(t, decodeEnvelope(t, rec), &playlist)
	if playlist.TotalVideos != 1 {
		t.Errorf("expected 1 video, got %+v", playlist)
	}
	expectMet(t, mock)
}

func TestAddToPlaylist_NotOwner(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "playlists", testPlaylistID, otherUserID)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPatch, "/api/v1/playlist/add/{videoId}/{playlistId}", httputil.HandlerFunc(handler.AddToPlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPatch, "/api/v1/playlist/add/"+testVideoID+"/"+testPlaylistID, nil))

	expectStatus(t, rec, http.StatusForbidden)
	expectMet(t, mock)
}

func TestRemoveFromPlaylist_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "playlists", testPlaylistID, testUserID)
	mock.ExpectExec(`DELETE FROM playlist_videos WHERE playlist_id = \$1 AND video_id = \$2`).
		WithArgs(testPlaylistID, testVideoID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	expectLoadPlaylist(mock, testUserID, testUserID, pgxmock.NewRows(listRowColumns))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPatch, "/api/v1/playlist/remove/{videoId}/{playlistId}", httputil.HandlerFunc(handler.RemoveFromPlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPatch, "/api/v1/playlist/remove/"+testVideoID+"/"+testPlaylistID, nil))

	expectStatus(t, rec, http.StatusOK)
	var playlist Playlist
	decodeData(t, decodeEnvelope(t, rec), &playlist)
	if playlist.TotalVideos != 0 || playlist.Videos == nil {
		t.Errorf("expected empty playlist, got %+v", playlist)
	}
	expectMet(t, mock)
}

func TestUpdatePlaylist_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "playlists", testPlaylistID, testUserID)
	mock.ExpectExec(`UPDATE playlists SET name = \$1, description = \$2, updated_at = now\(\) WHERE id = \$3`).
		WithArgs("Favourites", "Best of", testPlaylistID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	expectLoadPlaylist(mock, testUserID, testUserID, pgxmock.NewRows(listRowColumns))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodPatch, "/api/v1/playlist/{playlistId}", httputil.HandlerFunc(handler.UpdatePlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodPatch, "/api/v1/playlist/"+testPlaylistID, playlistBody(t, "Favourites", "Best of")))

	expectStatus(t, rec, http.StatusOK)
	expectMet(t, mock)
}

func TestDeletePlaylist_NotOwner(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "playlists", testPlaylistID, otherUserID)

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodDelete, "/api/v1/playlist/{playlistId}", httputil.HandlerFunc(handler.DeletePlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodDelete, "/api/v1/playlist/"+testPlaylistID, nil))

	expectStatus(t, rec, http.StatusForbidden)
	expectMet(t, mock)
}

func TestDeletePlaylist_Success(t *testing.T) {
	mock, handler, _ := newTestHandler(t)

	expectOwner(mock, "playlists", testPlaylistID, testUserID)
	mock.ExpectExec(`DELETE FROM playlists WHERE id = \$1`).
		WithArgs(testPlaylistID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	r := chi.NewRouter()
	r.With(newAuthMiddleware()).Method(http.MethodDelete, "/api/v1/playlist/{playlistId}", httputil.HandlerFunc(handler.DeletePlaylist))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authenticatedRequest(t, http.MethodDelete, "/api/v1/playlist/"+testPlaylistID, nil))

	expectStatus(t, rec, http.StatusOK)
	expectMet(t, mock)
}
