package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/telegram/bot"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const downloadTimeout = 2 * time.Minute

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes against the Bot API and wires the bot to the document flows
func NewBot(
	cfg *config.TelegramConfig,
	ingestion bot.IngestionUsecase,
	query bot.QueryUsecase,
	logger *zap.Logger,
) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	// file URLs carry the bot token, so downloads are not request-logged
	downloads := pkghttp.NewConnector(
		&pkghttp.ConnectorConfig{Logger: logger},
		pkghttp.WithRequestTimeout(downloadTimeout),
		pkghttp.WithUserAgent("docqa-telegram-bot"),
	)

	b := bot.New(api, bot.NewFileFetcher(api, downloads), cfg, ingestion, query, logger)

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
