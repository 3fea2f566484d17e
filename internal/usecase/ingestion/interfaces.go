package ingestion

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) entity.Extraction
}

type Chunker interface {
	Split(pages []entity.Page) []entity.Chunk
}

type Indexer interface {
	Index(ctx context.Context, chunks []entity.Chunk) entity.IndexReport
}

type SessionStore interface {
	Count(ctx context.Context, sessionID string) (int, error)
	DeleteSession(ctx context.Context, sessionID string) (int, error)
}
