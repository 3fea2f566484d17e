package reranker

import (
	"context"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector scores texts by the share of query words they contain
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Ping(ctx context.Context) error {
	ctxzap.Info(ctx, "[MOCK] reranker ready")
	return nil
}

func (m *MockConnector) Score(ctx context.Context, query string, texts []string) ([]entity.RerankResult, error) {
	ctxzap.Debug(ctx, "[MOCK] scoring candidates", zap.Int("count", len(texts)))

	queryWords := strings.Fields(strings.ToLower(query))
	results := make([]entity.RerankResult, len(texts))
	for i, t := range texts {
		results[i] = entity.RerankResult{Index: i, Score: overlap(queryWords, strings.ToLower(t))}
	}
	return results, nil
}

func overlap(queryWords []string, text string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	hits := 0
	for _, w := range queryWords {
		if strings.Contains(text, strings.Trim(w, ".,;:!?\"'")) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryWords))
}
