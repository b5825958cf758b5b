package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/domain"
)

const foreignKeyViolation = "23503"

// postSelect читает пост вместе с именем категории, автором и числом комментариев.
// LEFT JOIN: висячие ссылки дают NULL, а не ошибку.
const postSelect = `
	SELECT p.id, p.title, p.content, p.category_id, c.name AS category_name,
	       p.author_id, u.username AS author_username, p.image,
	       (SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count,
	       p.created_at, p.updated_at
	FROM posts p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN users u ON u.id = p.author_id`

const commentSelect = `
	SELECT cm.id, cm.post_id, cm.seq, cm.content, cm.author_id,
	       u.username AS author_username, cm.created_at
	FROM comments cm
	LEFT JOIN users u ON u.id = cm.author_id`

type postRow struct {
	ID             uuid.UUID      `db:"id"`
	Title          string         `db:"title"`
	Content        string         `db:"content"`
	CategoryID     uuid.UUID      `db:"category_id"`
	CategoryName   sql.NullString `db:"category_name"`
	AuthorID       uuid.UUID      `db:"author_id"`
	AuthorUsername sql.NullString `db:"author_username"`
	Image          sql.NullString `db:"image"`
	CommentCount   int            `db:"comment_count"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r postRow) toDomain() domain.Post {
	post := domain.Post{
		ID:           r.ID,
		Title:        r.Title,
		Content:      r.Content,
		CategoryID:   r.CategoryID,
		AuthorID:     r.AuthorID,
		CommentCount: r.CommentCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.CategoryName.Valid {
		post.Category = &domain.CategoryRef{ID: r.CategoryID, Name: r.CategoryName.String}
	}
	if r.AuthorUsername.Valid {
		post.Author = &domain.UserRef{ID: r.AuthorID, Username: r.AuthorUsername.String}
	}
	if r.Image.Valid {
		img := r.Image.String
		post.Image = &img
	}
	return post
}

type commentRow struct {
	ID             uuid.UUID      `db:"id"`
	PostID         uuid.UUID      `db:"post_id"`
	Seq            int64          `db:"seq"`
	Content        string         `db:"content"`
	AuthorID       uuid.UUID      `db:"author_id"`
	AuthorUsername sql.NullString `db:"author_username"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r commentRow) toDomain() domain.Comment {
	c := domain.Comment{
		ID:        r.ID,
		PostID:    r.PostID,
		Seq:       r.Seq,
		Content:   r.Content,
		AuthorID:  r.AuthorID,
		CreatedAt: r.CreatedAt,
	}
	if r.AuthorUsername.Valid {
		c.Author = &domain.UserRef{ID: r.AuthorID, Username: r.AuthorUsername.String}
	}
	return c
}

// PostStorage реализует интерфейс ports.PostStorage: посты и их комментарии
type PostStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostStorage создает новый экземпляр PostStorage
func NewPostStorage(db *sqlx.DB, logger *slog.Logger) *PostStorage {
	return &PostStorage{db: db, logger: logger}
}

// CreatePost сохраняет новый пост
func (s *PostStorage) CreatePost(ctx context.Context, post *domain.Post) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, content, category_id, author_id, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, post.ID, post.Title, post.Content, post.CategoryID, post.AuthorID, nullString(post.Image), post.CreatedAt, post.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("author %s: %w", post.AuthorID, domain.ErrNotFound)
		}
		s.logger.Error("failed to insert post", "post_id", post.ID, "error", err)
		return fmt.Errorf("insert post: %w", err)
	}

	s.logger.Info("post saved",
		"post_id", post.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetPost получает пост по ID
func (s *PostStorage) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	start := time.Now()

	post, err := getPost(ctx, s.db, postSelect+` WHERE p.id = $1`, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to get post", "post_id", id, "error", err)
		}
		return nil, err
	}

	s.logger.Debug("post retrieved",
		"post_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return post, nil
}

// ListPosts возвращает страницу постов в порядке создания
func (s *PostStorage) ListPosts(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	start := time.Now()

	var rows []postRow
	q := postSelect + `
	ORDER BY p.created_at ASC, p.id ASC
	LIMIT $1 OFFSET $2`
	if err := s.db.SelectContext(ctx, &rows, q, limit, offset); err != nil {
		s.logger.Error("failed to list posts", "offset", offset, "limit", limit, "error", err)
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toDomain())
	}

	s.logger.Info("listed posts",
		"offset", offset,
		"limit", limit,
		"count", len(posts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return posts, nil
}

// CountPosts возвращает общее число постов
func (s *PostStorage) CountPosts(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts`); err != nil {
		s.logger.Error("failed to count posts", "error", err)
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// UpdatePost блокирует строку поста, проверяет guard и применяет патч в одной транзакции.
func (s *PostStorage) UpdatePost(ctx context.Context, id uuid.UUID, guard ports.OwnerGuard, patch domain.PostPatch) (*domain.Post, *domain.Post, error) {
	start := time.Now()

	var updated, previous *domain.Post
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		previous, err = lockPost(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := guard(previous); err != nil {
			return err
		}

		next := *previous
		patch.Apply(&next)
		next.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, `
			UPDATE posts
			SET title = $2, content = $3, category_id = $4, image = $5, updated_at = $6
			WHERE id = $1
		`, id, next.Title, next.Content, next.CategoryID, nullString(next.Image), next.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update post: %w", err)
		}

		updated, err = getPost(ctx, tx, postSelect+` WHERE p.id = $1`, id)
		return err
	})
	if err != nil {
		s.logFailure("failed to update post", id, err)
		return nil, nil, err
	}

	s.logger.Info("post updated",
		"post_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return updated, previous, nil
}

// DeletePost удаляет пост; комментарии удаляются каскадно.
func (s *PostStorage) DeletePost(ctx context.Context, id uuid.UUID, guard ports.OwnerGuard) (*domain.Post, error) {
	start := time.Now()

	var deleted *domain.Post
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		deleted, err = lockPost(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := guard(deleted); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("failed to delete post", id, err)
		return nil, err
	}

	s.logger.Info("post deleted",
		"post_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return deleted, nil
}

// AddComment вставляет комментарий одним выражением: вставка происходит только
// если пост существует, seq выдаёт последовательность БД.
func (s *PostStorage) AddComment(ctx context.Context, comment *domain.Comment) error {
	start := time.Now()

	var res struct {
		Seq            int64          `db:"seq"`
		AuthorUsername sql.NullString `db:"author_username"`
	}
	err := s.db.GetContext(ctx, &res, `
		WITH inserted AS (
			INSERT INTO comments (id, post_id, author_id, content, created_at)
			SELECT $1::uuid, $2::uuid, $3::uuid, $4::text, $5::timestamptz
			WHERE EXISTS (SELECT 1 FROM posts WHERE id = $2::uuid)
			RETURNING seq, author_id
		)
		SELECT i.seq, u.username AS author_username
		FROM inserted i
		LEFT JOIN users u ON u.id = i.author_id
	`, comment.ID, comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || isForeignKeyViolation(err) {
		return fmt.Errorf("post %s: %w", comment.PostID, domain.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("failed to insert comment", "post_id", comment.PostID, "error", err)
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.Seq = res.Seq
	if res.AuthorUsername.Valid {
		comment.Author = &domain.UserRef{ID: comment.AuthorID, Username: res.AuthorUsername.String}
	}

	s.logger.Info("comment saved",
		"post_id", comment.PostID,
		"comment_id", comment.ID,
		"seq", comment.Seq,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ListComments возвращает все комментарии поста в порядке вставки
func (s *PostStorage) ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	start := time.Now()

	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
		s.logger.Error("failed to check post existence", "post_id", postID, "error", err)
		return nil, fmt.Errorf("check post: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}

	var rows []commentRow
	if err := s.db.SelectContext(ctx, &rows, commentSelect+` WHERE cm.post_id = $1 ORDER BY cm.seq ASC`, postID); err != nil {
		s.logger.Error("failed to list comments", "post_id", postID, "error", err)
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toDomain())
	}

	s.logger.Debug("listed comments",
		"post_id", postID,
		"count", len(comments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return comments, nil
}

func (s *PostStorage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostStorage) logFailure(msg string, id uuid.UUID, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		s.logger.Warn(msg, "post_id", id, "error", err)
		return
	}
	s.logger.Error(msg, "post_id", id, "error", err)
}

func lockPost(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Post, error) {
	return getPost(ctx, tx, postSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func getPost(ctx context.Context, q sqlx.QueryerContext, query string, id uuid.UUID) (*domain.Post, error) {
	var row postRow
	err := sqlx.GetContext(ctx, q, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	post := row.toDomain()
	return &post, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
