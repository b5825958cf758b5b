package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/GoArmGo/BlogApp/internal/auth"
	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/messaging/payloads"
)

// растровые форматы, которые можно безопасно отдавать браузеру как есть
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedImageType сообщает, принимается ли картинка с таким MIME-типом.
func IsAllowedImageType(mtype string) bool {
	return allowedImageTypes[mtype]
}

// DefaultMaxImageBytes используется, если лимит размера картинки не задан.
const DefaultMaxImageBytes int64 = 5 << 20

// postUseCase implements PostUseCase
type postUseCase struct {
	posts         ports.PostStorage
	files         ports.FileStorage
	cleanup       ports.ImageCleanupPublisher
	validator     *inputValidator
	maxImageBytes int64
	logger        *slog.Logger
}

// NewPostUseCase создает новый экземпляр PostUseCase
func NewPostUseCase(
	posts ports.PostStorage,
	files ports.FileStorage,
	cleanup ports.ImageCleanupPublisher,
	maxImageBytes int64,
	logger *slog.Logger,
) PostUseCase {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &postUseCase{
		posts:         posts,
		files:         files,
		cleanup:       cleanup,
		validator:     newInputValidator(),
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

func (uc *postUseCase) ListPosts(ctx context.Context, page, limit int) (*domain.PostPage, error) {
	var fields []domain.FieldError
	if page < 1 {
		fields = append(fields, domain.FieldError{Field: "page", Message: "must be >= 1"})
	}
	if limit < 1 {
		fields = append(fields, domain.FieldError{Field: "limit", Message: "must be >= 1"})
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	total, err := uc.posts.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: count posts: %w", err)
	}

	posts := []domain.Post{}
	offset := (page - 1) * limit
	if int64(offset) < total {
		posts, err = uc.posts.ListPosts(ctx, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("usecase: list posts page %d: %w", page, err)
		}
	}

	return &domain.PostPage{
		Posts: posts,
		Total: total,
		Page:  page,
		Pages: domain.TotalPages(total, limit),
	}, nil
}

func (uc *postUseCase) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := uc.posts.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: get post %s: %w", id, err)
	}
	return post, nil
}

func (uc *postUseCase) CreatePost(ctx context.Context, caller auth.Identity, in CreatePostInput) (*domain.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := uc.validator.Struct(in); err != nil {
		return nil, err
	}
	categoryID := uuid.MustParse(in.Category)

	image, err := uc.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &domain.Post{
		ID:         uuid.New(),
		Title:      in.Title,
		Content:    in.Content,
		CategoryID: categoryID,
		AuthorID:   caller.UserID,
		Image:      image,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.posts.CreatePost(ctx, post); err != nil {
		uc.enqueueCleanup(ctx, image, post.ID, payloads.ReasonWriteFailed)
		return nil, fmt.Errorf("usecase: create post: %w", err)
	}

	uc.logger.Info("post created", "post_id", post.ID, "author_id", caller.UserID)

	created, err := uc.posts.GetPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("usecase: reload post %s: %w", post.ID, err)
	}
	return created, nil
}

func (uc *postUseCase) UpdatePost(ctx context.Context, id uuid.UUID, caller auth.Identity, in UpdatePostInput) (*domain.Post, error) {
	current, err := uc.posts.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: update post %s: %w", id, err)
	}
	if err := auth.AuthorizeOwner(caller, current.AuthorID); err != nil {
		return nil, fmt.Errorf("usecase: update post %s: %w", id, err)
	}

	patch, err := uc.buildPatch(in)
	if err != nil {
		return nil, err
	}

	image, err := uc.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	patch.Image = image

	if patch.Empty() {
		return current, nil
	}

	guard := func(stored *domain.Post) error {
		return auth.AuthorizeOwner(caller, stored.AuthorID)
	}
	updated, previous, err := uc.posts.UpdatePost(ctx, id, guard, patch)
	if err != nil {
		uc.enqueueCleanup(ctx, image, id, payloads.ReasonWriteFailed)
		return nil, fmt.Errorf("usecase: update post %s: %w", id, err)
	}

	if image != nil && previous.Image != nil && *previous.Image != *image {
		uc.enqueueCleanup(ctx, previous.Image, id, payloads.ReasonImageReplaced)
	}

	uc.logger.Info("post updated", "post_id", id, "author_id", caller.UserID)
	return updated, nil
}

func (uc *postUseCase) DeletePost(ctx context.Context, id uuid.UUID, caller auth.Identity) error {
	guard := func(stored *domain.Post) error {
		return auth.AuthorizeOwner(caller, stored.AuthorID)
	}
	deleted, err := uc.posts.DeletePost(ctx, id, guard)
	if err != nil {
		return fmt.Errorf("usecase: delete post %s: %w", id, err)
	}

	uc.enqueueCleanup(ctx, deleted.Image, id, payloads.ReasonPostDeleted)
	uc.logger.Info("post deleted", "post_id", id, "author_id", caller.UserID)
	return nil
}

func (uc *postUseCase) ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	comments, err := uc.posts.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("usecase: list comments of %s: %w", postID, err)
	}
	return comments, nil
}

func (uc *postUseCase) AddComment(ctx context.Context, postID uuid.UUID, caller auth.Identity, in CommentInput) (*domain.Comment, error) {
	if err := uc.validator.Struct(in); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		Content:   in.Content,
		AuthorID:  caller.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.posts.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("usecase: add comment to %s: %w", postID, err)
	}

	uc.logger.Info("comment added", "post_id", postID, "comment_id", comment.ID, "author_id", caller.UserID)
	return comment, nil
}

func (uc *postUseCase) OpenImage(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validImageKey(key) {
		return nil, fmt.Errorf("usecase: image %q: %w", key, domain.ErrNotFound)
	}
	rc, err := uc.files.GetFile(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("usecase: open image %q: %w", key, err)
	}
	return rc, nil
}

func (uc *postUseCase) PurgeImage(ctx context.Context, payload payloads.ImageCleanupPayload) error {
	if !validImageKey(payload.ObjectKey) {
		uc.logger.Warn("skipping cleanup of malformed image key", "object_key", payload.ObjectKey)
		return nil
	}
	if err := uc.files.DeleteFile(ctx, payload.ObjectKey); err != nil {
		return fmt.Errorf("usecase: purge image %q: %w", payload.ObjectKey, err)
	}
	uc.logger.Info("image purged", "object_key", payload.ObjectKey, "post_id", payload.PostID, "reason", payload.Reason)
	return nil
}

func (uc *postUseCase) buildPatch(in UpdatePostInput) (domain.PostPatch, error) {
	var patch domain.PostPatch
	var fields []domain.FieldError

	if fe := requireNonBlank("title", in.Title); fe != nil {
		fields = append(fields, *fe)
	} else if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if utf8.RuneCountInString(title) > 200 {
			fields = append(fields, domain.FieldError{Field: "title", Message: "must be at most 200 characters"})
		}
		patch.Title = &title
	}

	if fe := requireNonBlank("content", in.Content); fe != nil {
		fields = append(fields, *fe)
	} else {
		patch.Content = in.Content
	}

	if fe := requireNonBlank("category", in.Category); fe != nil {
		fields = append(fields, *fe)
	} else if in.Category != nil {
		categoryID, err := uuid.Parse(strings.TrimSpace(*in.Category))
		if err != nil {
			fields = append(fields, domain.FieldError{Field: "category", Message: "must be a valid id"})
		} else {
			patch.CategoryID = &categoryID
		}
	}

	if len(fields) > 0 {
		return domain.PostPatch{}, domain.NewValidationError(fields...)
	}
	return patch, nil
}

// storeImage проверяет тип и размер картинки и загружает её в хранилище.
// Возвращает nil, если картинки нет.
func (uc *postUseCase) storeImage(ctx context.Context, img *ImageUpload) (*string, error) {
	if img == nil || img.Reader == nil {
		return nil, nil
	}
	if img.Size > uc.maxImageBytes {
		return nil, domain.FieldInvalid("image", fmt.Sprintf("must be at most %d bytes", uc.maxImageBytes))
	}

	mtype, err := mimetype.DetectReader(img.Reader)
	if err != nil {
		return nil, fmt.Errorf("usecase: detect image type: %w", err)
	}
	if !IsAllowedImageType(mtype.String()) {
		return nil, domain.FieldInvalid("image", "must be a PNG, JPEG, GIF or WebP image, got "+mtype.String())
	}
	if _, err := img.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("usecase: rewind image: %w", err)
	}

	key := uuid.NewString() + mtype.Extension()
	stored, err := uc.files.UploadFile(ctx, key, img.Reader, mtype.String())
	if err != nil {
		return nil, fmt.Errorf("usecase: upload image: %w", err)
	}

	uc.logger.Info("image stored", "object_key", stored, "content_type", mtype.String(), "size", img.Size)
	return &stored, nil
}

// enqueueCleanup ставит задачу на удаление картинки. Ошибка публикации не
// отменяет уже зафиксированную запись и только логируется.
func (uc *postUseCase) enqueueCleanup(ctx context.Context, key *string, postID uuid.UUID, reason string) {
	if key == nil || *key == "" {
		return
	}
	payload := payloads.ImageCleanupPayload{ObjectKey: *key, PostID: postID.String(), Reason: reason}
	if err := uc.cleanup.PublishImageCleanup(context.WithoutCancel(ctx), payload); err != nil {
		uc.logger.Error("failed to enqueue image cleanup", "object_key", *key, "post_id", postID, "error", err)
	}
}

func validImageKey(key string) bool {
	if key == "" || strings.ContainsAny(key, "/\\") {
		return false
	}
	_, err := uuid.Parse(strings.TrimSuffix(key, path.Ext(key)))
	return err == nil
}
