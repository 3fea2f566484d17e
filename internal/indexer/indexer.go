package indexer

import (
	"context"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type Writer interface {
	Write(ctx context.Context, chunks []entity.Chunk) (int, error)
}

// Indexer embeds chunks in fixed size batches and writes them to the store.
// A batch whose embedding fails is dropped; the rest of the run continues.
type Indexer struct {
	embedder  Embedder
	store     Writer
	batchSize int
}

func New(embedder Embedder, store Writer, batchSize int) *Indexer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
	}
}

func (ix *Indexer) Index(ctx context.Context, chunks []entity.Chunk) entity.IndexReport {
	report := entity.IndexReport{Outcome: entity.OutcomeOK}

	valid := make([]entity.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Content) == "" {
			report.Skipped++
			continue
		}
		valid = append(valid, ch)
	}

	if len(valid) == 0 {
		return report
	}

	batches := (len(valid) + ix.batchSize - 1) / ix.batchSize
	for n := 0; n < batches; n++ {
		start := n * ix.batchSize
		batch := valid[start:min(start+ix.batchSize, len(valid))]

		if err := ctx.Err(); err != nil {
			ctxzap.Warn(ctx, "indexing cancelled", zap.Int("batch_start", start), zap.Error(err))
			report.FailedBatches += batches - n
			report.Skipped += len(valid) - start
			break
		}

		written, err := ix.indexBatch(ctx, batch)
		if err != nil {
			ctxzap.Error(ctx, "failed to index batch, skipping",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			report.FailedBatches++
			report.Skipped += len(batch)
			continue
		}
		report.Written += written
	}

	switch {
	case report.FailedBatches == 0:
	case report.FailedBatches == batches:
		report.Outcome = entity.OutcomeFailed
	default:
		report.Outcome = entity.OutcomeDegraded
	}

	ctxzap.Info(ctx, "chunks indexed",
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed_batches", report.FailedBatches),
	)

	return report
}

func (ix *Indexer) indexBatch(ctx context.Context, batch []entity.Chunk) (int, error) {
	texts := make([]string, len(batch))
	for i, ch := range batch {
		texts[i] = ch.Content
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(batch) {
		return 0, entity.ErrEmbeddingCount
	}

	embedded := make([]entity.Chunk, len(batch))
	for i, ch := range batch {
		if len(vectors[i]) == 0 {
			return 0, entity.ErrEmptyEmbedding
		}
		ch.Embedding = vectors[i]
		embedded[i] = ch
	}

	return ix.store.Write(ctx, embedded)
}
