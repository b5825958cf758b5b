package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/messaging/payloads"
	"github.com/GoArmGo/BlogApp/internal/usecase"
)

// runWorker запускает потребителя RabbitMQ и удаляет осиротевшие картинки
func runWorker(
	ctx context.Context,
	logger *slog.Logger,
	postUseCase usecase.PostUseCase,
	cleanupConsumer ports.ImageCleanupConsumer,
) error {
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	messageHandler := func(ctx context.Context, payload payloads.ImageCleanupPayload) error {
		logger.Info("processing image cleanup", "object_key", payload.ObjectKey, "post_id", payload.PostID, "reason", payload.Reason)
		return postUseCase.PurgeImage(ctx, payload)
	}

	if err := cleanupConsumer.StartConsumingImageCleanup(workerCtx, messageHandler); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}
	logger.Info("worker started, waiting for image cleanup jobs")

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping worker")
	return nil
}
