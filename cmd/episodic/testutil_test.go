package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vmunix/episodic/internal/logging"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

// upstreamRoutes maps "path?query" (or bare path) to a JSON payload. A
// payload of type int is written as that status code.
type upstreamRoutes map[string]any

// requestLog records request URIs in arrival order.
type requestLog struct {
	mu   sync.Mutex
	uris []string
}

func (l *requestLog) add(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = append(l.uris, uri)
}

func (l *requestLog) URIs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.uris...)
}

// newUpstreamServer serves routes and records every request URI.
func newUpstreamServer(t *testing.T, routes upstreamRoutes) (*imdbapi.Client, *requestLog) {
	t.Helper()
	seen := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r.URL.RequestURI())
		v, ok := routes[r.URL.RequestURI()]
		if !ok {
			v, ok = routes[r.URL.Path]
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		if code, isCode := v.(int); isCode {
			w.WriteHeader(code)
			return
		}
		respondJSON(t, w, v)
	}))
	t.Cleanup(srv.Close)

	client := imdbapi.New(
		imdbapi.WithBaseURL(srv.URL),
		imdbapi.WithRetry(1, 0),
		imdbapi.WithLogger(logging.Discard()),
	)
	return client, seen
}

// respondJSON writes a JSON response with proper content-type header.
func respondJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode JSON response: %v", err)
	}
}

// withServerURL temporarily sets serverURL for a test and restores it after.
func withServerURL(url string) func() {
	old := serverURL
	serverURL = url
	return func() { serverURL = old }
}
