package reranker

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

// Connector talks to a cross-encoder served behind a TEI compatible /rerank API
type Connector struct {
	config    config.RerankerConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.RerankerConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Ping succeeds once the model server reports it is ready
func (c *Connector) Ping(ctx context.Context) error {
	if err := c.connector.DoRequest(ctx, http.MethodGet, c.config.HealthEndpoint, nil, nil); err != nil {
		return fmt.Errorf("reranker health: %w", err)
	}
	return nil
}

// Score returns a relevance score per text. Results refer to texts by index.
func (c *Connector) Score(ctx context.Context, query string, texts []string) ([]entity.RerankResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "scoring candidates", zap.Int("count", len(texts)))

	req := entity.RerankRequest{Query: query, Texts: texts}

	var resp []entity.RerankResult
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.RerankEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	for _, r := range resp {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("%w: rerank index %d out of range", entity.ErrInvalidFormat, r.Index)
		}
	}

	return resp, nil
}
