package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, entity.HealthResponse{Status: "ok", Version: "1.2.3"})
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		names := make([]string, 0, len(files))
		for _, fh := range files {
			f, err := fh.Open()
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			f.Close()
			names = append(names, fh.Filename+":"+string(data))
		}
		sessionID := r.FormValue("session_id")
		if sessionID == "" {
			sessionID = "generated"
		}
		writeJSON(w, entity.UploadResponse{
			Status:         "success",
			SessionID:      sessionID,
			DocumentsAdded: len(files),
			Message:        names[0],
		})
	})
	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		var req entity.QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, entity.QueryResponse{
			Answer:  req.SessionID + ": " + req.Question,
			Sources: []entity.Source{{Filename: "a.txt", Page: 1, Snippet: "x"}},
		})
	})
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, entity.SessionStatsResponse{SessionID: r.PathValue("id"), Documents: 4})
	})
	mux.HandleFunc("DELETE /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, entity.ErrorResponse{Error: "boom"})
			return
		}
		writeJSON(w, entity.ClearResponse{Status: "success", Deleted: 4})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrips(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL, 5*time.Second, zap.NewNop())
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", health.Version)

	answer, err := c.Ask(ctx, "s1", "why?")
	require.NoError(t, err)
	assert.Equal(t, "s1: why?", answer.Answer)
	require.Len(t, answer.Sources, 1)

	stats, err := c.Stats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Documents)

	cleared, err := c.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, cleared.Deleted)

	_, err = c.Clear(ctx, "missing")
	assert.Error(t, err)
}

func TestClientUpload(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL, 5*time.Second, zap.NewNop())

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	resp, err := c.Upload(context.Background(), "", []string{path})
	require.NoError(t, err)
	assert.Equal(t, "generated", resp.SessionID)
	assert.Equal(t, 1, resp.DocumentsAdded)
	assert.Equal(t, "notes.txt:hello", resp.Message)

	resp, err = c.Upload(context.Background(), "s9", []string{path})
	require.NoError(t, err)
	assert.Equal(t, "s9", resp.SessionID)

	_, err = c.Upload(context.Background(), "s9", []string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}
