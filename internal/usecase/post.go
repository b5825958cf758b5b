package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/GoArmGo/BlogApp/internal/auth"
	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/messaging/payloads"
)

// ImageUpload описывает файл картинки из multipart-запроса. Содержимое проверяется в usecase.
type ImageUpload struct {
	Reader   io.ReadSeeker
	Size     int64
	Filename string
}

// CreatePostInput содержит поля нового поста.
type CreatePostInput struct {
	Title    string       `json:"title" validate:"notblank,max=200"`
	Content  string       `json:"content" validate:"notblank"`
	Category string       `json:"category" validate:"required,uuid"`
	Image    *ImageUpload `json:"-"`
}

// UpdatePostInput описывает частичное обновление: nil означает «оставить как есть».
type UpdatePostInput struct {
	Title    *string
	Content  *string
	Category *string
	Image    *ImageUpload
}

// CommentInput содержит текст нового комментария.
type CommentInput struct {
	Content string `json:"content" validate:"notblank,max=5000"`
}

// PostUseCase определяет интерфейс бизнес-логики постов и комментариев
type PostUseCase interface {
	// ListPosts возвращает страницу постов в порядке создания.
	ListPosts(ctx context.Context, page, limit int) (*domain.PostPage, error)

	// GetPost возвращает пост с подставленными категорией и автором.
	GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// CreatePost создаёт пост от имени проверенного пользователя.
	CreatePost(ctx context.Context, caller auth.Identity, in CreatePostInput) (*domain.Post, error)

	// UpdatePost меняет только переданные поля; разрешено лишь автору.
	UpdatePost(ctx context.Context, id uuid.UUID, caller auth.Identity, in UpdatePostInput) (*domain.Post, error)

	// DeletePost удаляет пост вместе с комментариями; разрешено лишь автору.
	DeletePost(ctx context.Context, id uuid.UUID, caller auth.Identity) error

	// ListComments возвращает все комментарии поста в порядке вставки.
	ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error)

	// AddComment дописывает комментарий к посту.
	AddComment(ctx context.Context, postID uuid.UUID, caller auth.Identity, in CommentInput) (*domain.Comment, error)

	// OpenImage отдаёт содержимое сохранённой картинки.
	OpenImage(ctx context.Context, key string) (io.ReadCloser, error)

	// PurgeImage удаляет картинку из файлового хранилища (вызывается воркером).
	PurgeImage(ctx context.Context, payload payloads.ImageCleanupPayload) error
}
