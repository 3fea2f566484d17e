package document

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type IngestionUsecase interface {
	Upload(ctx context.Context, sessionID string, files []entity.FileData) (entity.UploadResult, error)
	Clear(ctx context.Context, sessionID string) (int, error)
	SessionStats(ctx context.Context, sessionID string) (int, error)
}

type QueryUsecase interface {
	Ask(ctx context.Context, sessionID, question string) entity.Answer
}
