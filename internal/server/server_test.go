package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/episodic/internal/logging"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

type fakeSource struct {
	payload any
	err     error
	titleID string
	query   imdbapi.EpisodeQuery
}

func (f *fakeSource) Episodes(_ context.Context, titleID string, q imdbapi.EpisodeQuery) (any, error) {
	f.titleID = titleID
	f.query = q
	return f.payload, f.err
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListSeasons_Groups(t *testing.T) {
	src := &fakeSource{payload: map[string]any{"episodes": []any{
		map[string]any{"id": "e3", "season": "2", "episodeNumber": float64(1), "title": "Two-One"},
		map[string]any{"id": "e1", "season": "1", "episodeNumber": float64(1), "title": "Pilot"},
		map[string]any{"id": "e2", "season": "1", "episodeNumber": float64(2), "title": "Second"},
		map[string]any{"id": "e0", "season": "0", "title": "Special"},
		map[string]any{"id": "ex", "season": "TBA", "title": "Unknown"},
	}}}
	h := New(src, logging.Discard()).Handler()

	w := get(t, h, "/api/titles/tt0944947/seasons")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "tt0944947", src.titleID)
	assert.Equal(t, imdbapi.EpisodeQuery{}, src.query, "grouping requests the unfiltered listing")

	var resp seasonsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Seasons, 2)
	assert.Equal(t, 1, resp.Seasons[0].SeasonNumber)
	assert.Equal(t, 2, resp.Seasons[0].EpisodeCount)
	assert.Equal(t, "Pilot", resp.Seasons[0].Episodes[0].Title)
	assert.Equal(t, 2, resp.Seasons[1].SeasonNumber)
	assert.Equal(t, 1, resp.Seasons[1].EpisodeCount)
}

func TestListSeasons_NotFoundIsEmpty(t *testing.T) {
	src := &fakeSource{err: &imdbapi.StatusError{Code: http.StatusNotFound, Status: "404 Not Found"}}
	h := New(src, logging.Discard()).Handler()

	w := get(t, h, "/api/titles/tt404/seasons")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"seasons":[]}`, w.Body.String())
}

func TestListSeasons_UpstreamFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("HTTP 502 Bad Gateway upstream down")}
	h := New(src, logging.Discard()).Handler()

	w := get(t, h, "/api/titles/tt1/seasons")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "HTTP 502 Bad Gateway upstream down", resp.Error)
}

func TestListSeasons_EmptyPayload(t *testing.T) {
	h := New(&fakeSource{payload: map[string]any{}}, logging.Discard()).Handler()

	w := get(t, h, "/api/titles/tt1/seasons")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"seasons":[]}`, w.Body.String())
}

func TestRoutes_MethodAndPath(t *testing.T) {
	h := New(&fakeSource{}, logging.Discard()).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/titles/tt1/seasons", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = get(t, h, "/api/titles/tt1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	h := New(&fakeSource{}, logging.Discard()).Handler()

	w := get(t, h, "/api/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	h := New(&fakeSource{payload: map[string]any{}}, logging.Discard()).Handler()

	w := get(t, h, "/api/titles/tt1/seasons")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36, "a uuid is assigned")

	req := httptest.NewRequest(http.MethodGet, "/api/titles/tt1/seasons", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader), "incoming id is kept")
}

func TestRequestID_InContext(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "rid")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "rid", seen)
	assert.Empty(t, RequestID(context.Background()))
}

func TestLogRequests(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := logRequests(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}), log)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))

	out := buf.String()
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "path=/api/x")
	assert.Contains(t, out, "method=GET")
}
