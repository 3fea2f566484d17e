package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	apiKeyHeader   = "x-goog-api-key"
)

// Connector calls the Gemini generateContent REST API
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
) *Connector {
	if cfg.Url == "" {
		cfg.Url = defaultBaseURL
	}
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, pkghttp.WithAPIKey(apiKeyHeader, cfg.APIKey)),
		config:    cfg,
		logger:    logger,
	}
}

// GenerateContent sends one request to the configured model
func (c *Connector) GenerateContent(ctx context.Context, req *entity.GeminiGenerateRequest) (*entity.GeminiGenerateResponse, error) {
	endpoint := fmt.Sprintf("/v1beta/models/%s:generateContent", c.config.Model)

	if c.config.MaxOutputTokens > 0 && req.GenerationConfig == nil {
		req.GenerationConfig = &entity.GeminiGenerationConfig{MaxOutputTokens: c.config.MaxOutputTokens}
	}

	ctxzap.Info(ctx, "generating answer via LLM service", zap.String("model", c.config.Model))

	var resp entity.GeminiGenerateResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	ctxzap.Info(ctx, "answer generated",
		zap.Int("candidates", len(resp.Candidates)),
		zap.Int("result_length", len(resp.Text())),
	)

	return &resp, nil
}
