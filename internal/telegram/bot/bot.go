package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/futig/docqa-backend/internal/telegram/middleware"
	"github.com/futig/docqa-backend/internal/telegram/render"
	"github.com/futig/docqa-backend/internal/telegram/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const bytesInMB = 1 << 20

// Bot represents the Telegram bot. Every chat uploads into and asks against
// its own document session.
type Bot struct {
	api         API
	fetcher     Fetcher
	cfg         *config.TelegramConfig
	sessions    *state.Sessions
	ingestion   IngestionUsecase
	query       QueryUsecase
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New creates a new Telegram bot
func New(
	api API,
	fetcher Fetcher,
	cfg *config.TelegramConfig,
	ingestion IngestionUsecase,
	query QueryUsecase,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:         api,
		fetcher:     fetcher,
		cfg:         cfg,
		sessions:    state.NewSessions(cfg.SessionTTL),
		ingestion:   ingestion,
		query:       query,
		logger:      logger,
		loggingMW:   middleware.NewLoggingMiddleware(logger),
		recoveryMW:  middleware.NewRecoveryMiddleware(logger, api),
		rateLimitMW: middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger, api),
		stopChan:    make(chan struct{}),
	}
}

// Start starts receiving updates
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot and waits for running handlers
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				ctxzap.Info(ctx, "updates channel closed")
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware runs the update through rate limit, logging and
// recovery before it reaches the handler
func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(ctx, u3)
			})
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.HandlerTimeout)
	defer cancel()

	ctx = logger.AddFields(ctx, zap.Int64("chat_id", message.Chat.ID))
	if message.From != nil {
		ctx = logger.AddFields(ctx, zap.Int64("user_id", message.From.ID))
	}

	switch {
	case message.IsCommand():
		b.handleCommand(ctx, message)
	case message.Document != nil:
		b.handleDocument(ctx, message)
	case len(message.Photo) > 0:
		b.handlePhoto(ctx, message)
	case strings.TrimSpace(message.Text) != "":
		b.handleQuestion(ctx, message)
	default:
		b.sendMessage(ctx, message.Chat.ID, render.MsgUnsupported)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	command := message.Command()

	ctxzap.Info(ctx, "command received", zap.String("command", command))

	switch command {
	case "start":
		b.sessions.Current(chatID)
		b.sendMessage(ctx, chatID, render.MsgWelcome)
	case "help":
		b.sendMessage(ctx, chatID, render.MsgHelp)
	case "new":
		previous, current := b.sessions.Reset(chatID)
		if previous != "" {
			if _, err := b.ingestion.Clear(ctx, previous); err != nil {
				ctxzap.Error(ctx, "failed to clear previous session",
					zap.Error(err),
					zap.String("session_id", previous),
				)
			}
		}
		b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgNewSession, current))
	case "clear":
		deleted := 0
		if sessionID, ok := b.sessions.Lookup(chatID); ok {
			n, err := b.ingestion.Clear(ctx, sessionID)
			if err != nil {
				ctxzap.Error(ctx, "failed to clear session", zap.Error(err), zap.String("session_id", sessionID))
				b.sendMessage(ctx, chatID, render.ErrGeneric)
				return
			}
			deleted = n
		}
		b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgSessionCleared, deleted))
	case "session":
		b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgCurrentSession, b.sessions.Current(chatID)))
	default:
		b.sendMessage(ctx, chatID, render.MsgUnknownCommand)
	}
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	doc := message.Document
	b.ingestFile(ctx, message.Chat.ID, doc.FileID, doc.FileName, int64(doc.FileSize))
}

// handlePhoto ingests the largest size Telegram offers for the photo
func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) {
	photo := message.Photo[len(message.Photo)-1]
	filename := fmt.Sprintf("photo_%s.jpg", photo.FileUniqueID)
	b.ingestFile(ctx, message.Chat.ID, photo.FileID, filename, int64(photo.FileSize))
}

func (b *Bot) ingestFile(ctx context.Context, chatID int64, fileID, filename string, size int64) {
	filename = validator.CleanFilename(filename)

	if size > b.cfg.MaxFileSize {
		ctxzap.Warn(ctx, "file too large",
			zap.String("filename", filename),
			zap.Int64("size", size),
		)
		b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgFileTooLarge, filename, b.cfg.MaxFileSize/bytesInMB))
		return
	}

	b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgProcessingFile, filename))

	data, err := b.fetcher.Fetch(ctx, fileID, b.cfg.MaxFileSize)
	if err != nil {
		ctxzap.Error(ctx, "failed to download file", zap.Error(err), zap.String("filename", filename))
		b.sendMessage(ctx, chatID, render.ErrDownload)
		return
	}

	sessionID := b.sessions.Current(chatID)
	result, err := b.ingestion.Upload(ctx, sessionID, []entity.FileData{{Filename: filename, Content: data}})
	if err != nil {
		ctxzap.Error(ctx, "failed to ingest file", zap.Error(err), zap.String("filename", filename))
		if errors.Is(err, entity.ErrNoFiles) {
			b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgNothingIngested, filename))
			return
		}
		b.sendMessage(ctx, chatID, render.ErrGeneric)
		return
	}

	if result.DocumentsAdded == 0 {
		b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgNothingIngested, filename))
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf(render.MsgFileIngested, filename, result.DocumentsAdded))
}

func (b *Bot) handleQuestion(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		ctxzap.Debug(ctx, "failed to send typing action", zap.Error(err))
	}

	answer := b.query.Ask(ctx, b.sessions.Current(chatID), message.Text)
	b.sendMessage(ctx, chatID, render.FormatAnswer(answer))
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
