package ports

import (
	"context"

	"github.com/GoArmGo/BlogApp/internal/messaging/payloads"
)

// ImageCleanupPublisher публикует задачи на удаление осиротевших картинок
// используется PostUseCase после удаления поста или замены картинки
type ImageCleanupPublisher interface {
	PublishImageCleanup(ctx context.Context, payload payloads.ImageCleanupPayload) error
}

// ImageCleanupConsumer потребляет задачи очистки, используется воркером
type ImageCleanupConsumer interface {
	// StartConsumingImageCleanup начинает прослушивание очереди
	// handler вызывается для каждого полученного сообщения
	StartConsumingImageCleanup(ctx context.Context, handler func(context.Context, payloads.ImageCleanupPayload) error) error
}
