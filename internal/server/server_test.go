package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage/memory"
	"github.com/Tab-and-Quill/spotify-music-history/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := New("127.0.0.1:0", memory.New(), "release", "")
		w := get(s, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","storage":"connected"}`, w.Body.String())
	})

	t.Run("storage unavailable", func(t *testing.T) {
		s := New("127.0.0.1:0", storage.NewUnavailable(errors.New("dial tcp: refused")), "release", "")
		w := get(s, "/health")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unhealthy")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.RecordSummaryLookup("hit")

	s := New("127.0.0.1:0", memory.New(), "release", "/metrics")
	w := get(s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "musichistory_summary_lookups_total")

	disabled := New("127.0.0.1:0", memory.New(), "release", "")
	assert.Equal(t, http.StatusNotFound, get(disabled, "/metrics").Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", nil, "release", "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
