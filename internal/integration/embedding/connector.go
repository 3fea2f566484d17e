package embedding

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

// Connector talks to a text-embeddings-inference compatible server
type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// EmbedDocuments returns one vector per input text, in input order
func (c *Connector) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "embedding documents", zap.Int("count", len(texts)))

	vectors, err := c.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	return vectors, nil
}

// EmbedQuery embeds a question. The configured query prefix is prepended so
// asymmetric models see the instruction they were trained with.
func (c *Connector) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{c.config.QueryPrefix + text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vectors[0], nil
}

func (c *Connector) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := entity.EmbedRequest{
		Inputs:    texts,
		Normalize: c.config.Normalize,
		Truncate:  true,
	}

	var resp [][]float32
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.EmbedEndpoint, req, &resp); err != nil {
		return nil, err
	}

	if len(resp) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", entity.ErrEmbeddingCount, len(texts), len(resp))
	}
	for i, v := range resp {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: vector %d", entity.ErrEmptyEmbedding, i)
		}
	}

	return resp, nil
}
