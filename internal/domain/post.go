package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category представляет категорию постов,
// соответствует таблице categories в бд
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// CategoryRef подставляется в пост вместо полной категории.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Post представляет пост блога вместе с read-time проекциями категории и автора.
// Category и Author равны nil, если ссылка висячая.
type Post struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	CategoryID   uuid.UUID    `json:"category_id"`
	Category     *CategoryRef `json:"category"`
	AuthorID     uuid.UUID    `json:"author_id"`
	Author       *UserRef     `json:"author"`
	Image        *string      `json:"image"`
	CommentCount int          `json:"comment_count"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PostPatch содержит только изменяемые поля; nil означает «не менять».
type PostPatch struct {
	Title      *string
	Content    *string
	CategoryID *uuid.UUID
	Image      *string
}

// Empty сообщает, что патч ничего не меняет.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.CategoryID == nil && p.Image == nil
}

// Apply переносит заданные поля патча в пост.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.CategoryID != nil {
		post.CategoryID = *p.CategoryID
	}
	if p.Image != nil {
		img := *p.Image
		post.Image = &img
	}
}

// PostPage содержит одну страницу списка постов.
type PostPage struct {
	Posts []Post `json:"posts"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}

// TotalPages = ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Comment принадлежит посту; порядок комментариев = порядок вставки (Seq).
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	Seq       int64     `json:"-"`
	Content   string    `json:"content"`
	AuthorID  uuid.UUID `json:"author_id"`
	Author    *UserRef  `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
