package bot

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the subset of tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type IngestionUsecase interface {
	Upload(ctx context.Context, sessionID string, files []entity.FileData) (entity.UploadResult, error)
	Clear(ctx context.Context, sessionID string) (int, error)
}

type QueryUsecase interface {
	Ask(ctx context.Context, sessionID, question string) entity.Answer
}

// Fetcher downloads files users attach to their messages
type Fetcher interface {
	Fetch(ctx context.Context, fileID string, maxBytes int64) ([]byte, error)
}
