package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConnector(url string) *Connector {
	return NewConnector(config.EmbeddingConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{Url: url},
		EmbedEndpoint:    "/embed",
		QueryPrefix:      "query: ",
		Normalize:        true,
	}, zap.NewNop())
}

func TestEmbedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)

		var req entity.EmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Normalize)

		out := make([][]float32, len(req.Inputs))
		for i := range req.Inputs {
			out[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	vectors, err := newTestConnector(srv.URL).EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2, 1}, vectors[2])
}

func TestEmbedQueryUsesPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req entity.EmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"query: what colour is the sky?"}, req.Inputs)
		_, _ = w.Write([]byte(`[[0.5, 0.5]]`))
	}))
	defer srv.Close()

	v, err := newTestConnector(srv.URL).EmbedQuery(context.Background(), "what colour is the sky?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, v)
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1]]`))
	}))
	defer srv.Close()

	_, err := newTestConnector(srv.URL).EmbedDocuments(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, entity.ErrEmbeddingCount)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestConnector(srv.URL).EmbedQuery(context.Background(), "q")
	assert.Error(t, err)
}

func TestHashEmbedding(t *testing.T) {
	a := HashEmbedding("The sky is blue.")
	b := HashEmbedding("what colour is the SKY")
	c := HashEmbedding("quarterly revenue grew")

	var norm float32
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-5)

	dot := func(x, y []float32) float32 {
		var s float32
		for i := range x {
			s += x[i] * y[i]
		}
		return s
	}
	assert.Greater(t, dot(a, b), dot(a, c))
	assert.Len(t, HashEmbedding("   "), mockDimension)
}
