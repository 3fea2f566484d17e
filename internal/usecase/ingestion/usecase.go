package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/chunker"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// IngestionUsecase turns uploaded files into indexed chunks of a session
type IngestionUsecase struct {
	extractor Extractor
	chunker   Chunker
	indexer   Indexer
	store     SessionStore
	logger    *zap.Logger
}

// NewUsecase creates a new ingestion use case
func NewUsecase(
	extractor Extractor,
	chunker Chunker,
	indexer Indexer,
	store SessionStore,
	logger *zap.Logger,
) *IngestionUsecase {
	return &IngestionUsecase{
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
		store:     store,
		logger:    logger,
	}
}

// Upload ingests files into sessionID. A blank session id gets a fresh one.
// Files are processed one at a time and a failing file never stops the rest.
func (uc *IngestionUsecase) Upload(ctx context.Context, sessionID string, files []entity.FileData) (entity.UploadResult, error) {
	if len(files) == 0 {
		return entity.UploadResult{}, entity.ErrNoFiles
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx = logger.WithSession(ctx, sessionID)
	result := entity.UploadResult{SessionID: sessionID}

	for _, f := range files {
		if len(f.Content) == 0 {
			ctxzap.Warn(ctx, "empty file, skipping", zap.String("filename", f.Filename))
			result.FilesSkipped++
			continue
		}

		written, ok := uc.ingestFile(ctx, sessionID, f)
		if !ok {
			result.FilesFailed++
		}
		result.DocumentsAdded += written
	}

	ctxzap.Info(ctx, "upload processed",
		zap.Int("files", len(files)),
		zap.Int("documents_added", result.DocumentsAdded),
		zap.Int("files_skipped", result.FilesSkipped),
		zap.Int("files_failed", result.FilesFailed),
	)

	return result, nil
}

func (uc *IngestionUsecase) ingestFile(ctx context.Context, sessionID string, f entity.FileData) (int, bool) {
	ctx = logger.AddFields(ctx, zap.String("filename", f.Filename))

	extraction := uc.extractor.Extract(ctx, f.Filename, f.Content)
	if extraction.Outcome == entity.OutcomeFailed {
		ctxzap.Error(ctx, "text extraction failed")
		return 0, false
	}

	// page numbers follow document order, empty pages keep their slot
	pages := make([]entity.Page, 0, len(extraction.Pages))
	words := 0
	for i, text := range extraction.Pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, entity.Page{
			SessionID: sessionID,
			Filename:  f.Filename,
			Number:    i + 1,
			Text:      text,
		})
		words += chunker.WordCount(text)
	}

	if len(pages) == 0 {
		ctxzap.Warn(ctx, "no text extracted", zap.String("kind", string(extraction.Kind)))
		return 0, true
	}

	chunks := uc.chunker.Split(pages)
	ctxzap.Debug(ctx, "file chunked",
		zap.Int("pages", len(pages)),
		zap.Int("words", words),
		zap.Int("chunks", len(chunks)),
	)

	report := uc.indexer.Index(ctx, chunks)
	return report.Written, report.Outcome != entity.OutcomeFailed
}

// Clear removes every chunk of the session and returns how many were removed
func (uc *IngestionUsecase) Clear(ctx context.Context, sessionID string) (int, error) {
	ctx = logger.WithSession(ctx, sessionID)

	deleted, err := uc.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}

	ctxzap.Info(ctx, "session cleared", zap.Int("deleted", deleted))
	return deleted, nil
}

// SessionStats returns the number of chunks indexed for the session
func (uc *IngestionUsecase) SessionStats(ctx context.Context, sessionID string) (int, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, entity.ErrEmptySessionID
	}

	count, err := uc.store.Count(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("count session documents: %w", err)
	}
	return count, nil
}
