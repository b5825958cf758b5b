package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/google/uuid"
)

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	// CreateUser сохраняет пользователя; при занятом username возвращает domain.ErrConflict.
	CreateUser(ctx context.Context, user *domain.User) error
	// GetUserByUsername возвращает domain.ErrNotFound, если пользователя нет.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// OwnerGuard проверяет право вызывающего на изменение поста.
// Вызывается с текущим сохранённым состоянием поста под блокировкой строки.
type OwnerGuard func(current *domain.Post) error

// PostStorage определяет методы для работы с агрегатом пост + комментарии
type PostStorage interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	ListPosts(ctx context.Context, offset, limit int) ([]domain.Post, error)
	CountPosts(ctx context.Context) (int64, error)

	// UpdatePost применяет патч, если guard разрешает. Возвращает обновлённый пост
	// и прежнее состояние (для очистки заменённой картинки).
	UpdatePost(ctx context.Context, id uuid.UUID, guard OwnerGuard, patch domain.PostPatch) (updated, previous *domain.Post, err error)
	// DeletePost удаляет пост вместе с комментариями и возвращает удалённое состояние.
	DeletePost(ctx context.Context, id uuid.UUID, guard OwnerGuard) (*domain.Post, error)

	// AddComment атомарно дописывает комментарий в конец последовательности поста.
	AddComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error)
}

// CategoryStorage определяет методы для работы с категориями
type CategoryStorage interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// FileStorage определяет интерфейс для работы с файловым хранилищем (AWS S3, MinIO)
// порт для хранения бинарных данных картинок постов
type FileStorage interface {
	// UploadFile загружает файл и возвращает ключ, под которым он сохранён.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	GetFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
}
