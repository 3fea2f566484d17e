package retriever

import (
	"context"
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Searcher interface {
	Search(ctx context.Context, sessionID string, query []float32, topK int) ([]entity.Chunk, error)
}

// Retriever returns the chunks of one session closest to a query embedding
type Retriever struct {
	store Searcher
	topK  int
}

func New(store Searcher, topK int) *Retriever {
	return &Retriever{
		store: store,
		topK:  topK,
	}
}

// Retrieve never looks outside sessionID. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, queryEmbedding []float32, sessionID string) ([]entity.Chunk, error) {
	if sessionID == "" {
		return nil, entity.ErrEmptySessionID
	}
	if len(queryEmbedding) == 0 {
		return nil, entity.ErrEmptyEmbedding
	}

	chunks, err := r.store.Search(ctx, sessionID, queryEmbedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search session %s: %w", sessionID, err)
	}

	ctxzap.Debug(ctx, "chunks retrieved", zap.Int("count", len(chunks)))

	return chunks, nil
}
