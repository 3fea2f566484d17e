package query

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, queryEmbedding []float32, sessionID string) ([]entity.Chunk, error)
}

type Ranker interface {
	Rerank(ctx context.Context, query string, candidates []entity.Chunk) ([]entity.Chunk, error)
	Outcome() entity.Outcome
}

type Generator interface {
	Generate(ctx context.Context, question string, chunks []entity.Chunk) (entity.Generation, error)
}
