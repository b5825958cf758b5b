package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/GoArmGo/BlogApp/internal/config"
	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/usecase"
)

type App struct {
	Config          *config.Config
	logger          *slog.Logger
	db              *sqlx.DB
	authUseCase     usecase.AuthUseCase
	postUseCase     usecase.PostUseCase
	categoryUseCase usecase.CategoryUseCase
	cleanupConsumer ports.ImageCleanupConsumer
}

func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	db *sqlx.DB,
	authUseCase usecase.AuthUseCase,
	postUseCase usecase.PostUseCase,
	categoryUseCase usecase.CategoryUseCase,
	cleanupConsumer ports.ImageCleanupConsumer,
) *App {
	return &App{
		Config:          cfg,
		logger:          logger,
		db:              db,
		authUseCase:     authUseCase,
		postUseCase:     postUseCase,
		categoryUseCase: categoryUseCase,
		cleanupConsumer: cleanupConsumer,
	}
}

// LoggerIns возвращает основной логгер приложения.
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в выбранном режиме и блокируется до SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case "server":
		err = runServer(ctx, a.Config, a.logger, a.authUseCase, a.postUseCase, a.categoryUseCase)
	case "worker":
		err = runWorker(ctx, a.logger, a.postUseCase, a.cleanupConsumer)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown failed", "error", closeErr)
	}
	if err != nil {
		return err
	}

	a.logger.Info("stopped gracefully")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	if closer, ok := a.cleanupConsumer.(interface{ Close() }); ok {
		closer.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия БД: %w", err)
		}
	}
	return nil
}
