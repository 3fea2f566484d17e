package builder

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futig/docqa-backend/internal/telegram"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App represents the application with all its components
type App struct {
	server *http.Server
	bot    telegram.Bot
	logger *zap.Logger
}

// Run starts the HTTP server and, when configured, the Telegram bot, then
// blocks until a shutdown signal or a server error
func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	if a.bot != nil {
		if err := a.bot.Start(ctx); err != nil {
			a.logger.Error("failed to start telegram bot", zap.Error(err))
			return err
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("server error", zap.Error(err))
		a.stopBot()
		return err
	case sig := <-sigChan:
		a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	return a.shutdown()
}

// shutdown stops accepting requests and waits for in-flight ones
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down server gracefully")

	a.stopBot()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	a.logger.Info("application stopped gracefully")
	return nil
}

func (a *App) stopBot() {
	if a.bot == nil {
		return
	}
	if err := a.bot.Stop(); err != nil {
		a.logger.Error("error stopping telegram bot", zap.Error(err))
	}
}
