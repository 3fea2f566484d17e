package llm

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

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-goog-api-key"))

		var req entity.GeminiGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, 256, req.GenerationConfig.MaxOutputTokens)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi "},{"text":"there"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c := NewConnector(config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{Url: srv.URL},
		Model:            "gemini-2.0-flash",
		APIKey:           "key-1",
		MaxOutputTokens:  256,
	}, zap.NewNop())

	resp, err := c.GenerateContent(context.Background(), &entity.GeminiGenerateRequest{
		Contents: []entity.GeminiContent{{Role: "user", Parts: []entity.GeminiPart{{Text: "hello"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", resp.Text())
}

func TestGenerateContentNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewConnector(config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{Url: srv.URL},
		Model:            "m",
	}, zap.NewNop())

	resp, err := c.GenerateContent(context.Background(), &entity.GeminiGenerateRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Text())
}

func TestMockPicksMatchingSentence(t *testing.T) {
	prompt := "Context:\nGrass is green. The sky is blue.\n\nOther file.\n\nQuestion: What colour is the sky?\nAnswer:"
	resp, err := NewMockConnector(zap.NewNop()).GenerateContent(context.Background(), &entity.GeminiGenerateRequest{
		Contents: []entity.GeminiContent{{Parts: []entity.GeminiPart{{Text: prompt}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", resp.Text())
}
