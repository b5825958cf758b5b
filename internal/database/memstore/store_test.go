package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/BlogApp/internal/domain"
)

func TestUpdatePostTouchesUpdatedAt(t *testing.T) {
	store := New()
	ctx := context.Background()

	author := domain.User{ID: uuid.New(), Username: "alice", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(ctx, &author))

	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	post := &domain.Post{
		ID:        uuid.New(),
		Title:     "Hi",
		Content:   "World",
		AuthorID:  author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, store.CreatePost(ctx, post))

	title := "Hello"
	allow := func(*domain.Post) error { return nil }
	updated, previous, err := store.UpdatePost(ctx, post.ID, allow, domain.PostPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Hello", updated.Title)
	assert.Equal(t, created, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created))
	assert.Equal(t, created, previous.UpdatedAt)

	stored, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, stored.UpdatedAt)
}

func TestUpdatePostGuardRejectsWithoutWriting(t *testing.T) {
	store := New()
	ctx := context.Background()

	author := domain.User{ID: uuid.New(), Username: "alice", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(ctx, &author))
	post := &domain.Post{ID: uuid.New(), Title: "Hi", Content: "World", AuthorID: author.ID}
	require.NoError(t, store.CreatePost(ctx, post))

	title := "Hijacked"
	deny := func(*domain.Post) error { return domain.ErrForbidden }
	_, _, err := store.UpdatePost(ctx, post.ID, deny, domain.PostPatch{Title: &title})
	require.ErrorIs(t, err, domain.ErrForbidden)

	stored, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi", stored.Title)
	assert.True(t, stored.UpdatedAt.IsZero())
}
