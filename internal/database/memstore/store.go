// Package memstore хранит пользователей, посты и категории в памяти процесса.
// Используется в тестах usecase и handler вместо PostgreSQL.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/domain"
)

// Store реализует UserStorage, PostStorage и CategoryStorage.
type Store struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]domain.User
	usernames  map[string]uuid.UUID
	categories map[uuid.UUID]domain.Category
	posts      map[uuid.UUID]domain.Post
	comments   map[uuid.UUID][]domain.Comment
	postSeq    map[uuid.UUID]int64
	nextPost   int64
	nextSeq    int64
}

var (
	_ ports.UserStorage     = (*Store)(nil)
	_ ports.PostStorage     = (*Store)(nil)
	_ ports.CategoryStorage = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:      make(map[uuid.UUID]domain.User),
		usernames:  make(map[string]uuid.UUID),
		categories: make(map[uuid.UUID]domain.Category),
		posts:      make(map[uuid.UUID]domain.Post),
		comments:   make(map[uuid.UUID][]domain.Comment),
		postSeq:    make(map[uuid.UUID]int64),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[user.Username]; taken {
		return fmt.Errorf("memstore: username %q: %w", user.Username, domain.ErrConflict)
	}
	s.users[user.ID] = *user
	s.usernames[user.Username] = user.ID
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("memstore: user %q: %w", username, domain.ErrNotFound)
	}
	user := s.users[id]
	return &user, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == category.Name {
			return fmt.Errorf("memstore: category %q: %w", category.Name, domain.ErrConflict)
		}
	}
	s.categories[category.ID] = *category
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.AuthorID]; !ok {
		return fmt.Errorf("memstore: author %s: %w", post.AuthorID, domain.ErrNotFound)
	}
	s.nextPost++
	stored := *post
	stored.Category, stored.Author, stored.CommentCount = nil, nil, 0
	s.posts[post.ID] = stored
	s.postSeq[post.ID] = s.nextPost
	return nil
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("memstore: post %s: %w", id, domain.ErrNotFound)
	}
	joined := s.joinLocked(post)
	return &joined, nil
}

func (s *Store) ListPosts(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.postSeq[ids[i]] < s.postSeq[ids[j]] })

	if offset >= len(ids) {
		return []domain.Post{}, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	out := make([]domain.Post, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, s.joinLocked(s.posts[id]))
	}
	return out, nil
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

func (s *Store) UpdatePost(ctx context.Context, id uuid.UUID, guard ports.OwnerGuard, patch domain.PostPatch) (*domain.Post, *domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.posts[id]
	if !ok {
		return nil, nil, fmt.Errorf("memstore: post %s: %w", id, domain.ErrNotFound)
	}
	previous := s.joinLocked(current)
	if err := guard(&previous); err != nil {
		return nil, nil, err
	}

	updated := current
	patch.Apply(&updated)
	updated.UpdatedAt = time.Now().UTC()
	s.posts[id] = updated

	joined := s.joinLocked(updated)
	return &joined, &previous, nil
}

func (s *Store) DeletePost(ctx context.Context, id uuid.UUID, guard ports.OwnerGuard) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("memstore: post %s: %w", id, domain.ErrNotFound)
	}
	deleted := s.joinLocked(current)
	if err := guard(&deleted); err != nil {
		return nil, err
	}

	delete(s.posts, id)
	delete(s.comments, id)
	delete(s.postSeq, id)
	return &deleted, nil
}

func (s *Store) AddComment(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return fmt.Errorf("memstore: post %s: %w", comment.PostID, domain.ErrNotFound)
	}
	s.nextSeq++
	comment.Seq = s.nextSeq
	comment.Author = s.userRefLocked(comment.AuthorID)
	s.comments[comment.PostID] = append(s.comments[comment.PostID], *comment)
	return nil
}

func (s *Store) ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, fmt.Errorf("memstore: post %s: %w", postID, domain.ErrNotFound)
	}
	stored := s.comments[postID]
	out := make([]domain.Comment, len(stored))
	copy(out, stored)
	for i := range out {
		out[i].Author = s.userRefLocked(out[i].AuthorID)
	}
	return out, nil
}

func (s *Store) joinLocked(post domain.Post) domain.Post {
	if c, ok := s.categories[post.CategoryID]; ok {
		post.Category = &domain.CategoryRef{ID: c.ID, Name: c.Name}
	} else {
		post.Category = nil
	}
	post.Author = s.userRefLocked(post.AuthorID)
	post.CommentCount = len(s.comments[post.ID])
	if post.Image != nil {
		img := *post.Image
		post.Image = &img
	}
	return post
}

func (s *Store) userRefLocked(id uuid.UUID) *domain.UserRef {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	ref := u.Ref()
	return &ref
}
