package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 7, 4},
		{5, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TotalPages(c.total, c.limit), "total=%d limit=%d", c.total, c.limit)
	}
}

func TestPostPatchApplyOnlyPresentFields(t *testing.T) {
	img := "old.png"
	post := Post{Title: "t", Content: "c", CategoryID: uuid.New(), Image: &img}
	origCategory := post.CategoryID

	title := "new title"
	PostPatch{Title: &title}.Apply(&post)

	assert.Equal(t, "new title", post.Title)
	assert.Equal(t, "c", post.Content)
	assert.Equal(t, origCategory, post.CategoryID)
	assert.Equal(t, "old.png", *post.Image)
	assert.True(t, PostPatch{}.Empty())
	assert.False(t, PostPatch{Title: &title}.Empty())
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("usecase: %w", FieldInvalid("title", "is required"))

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, "validation", Kind(wrapped))
	assert.Equal(t, "not_found", Kind(fmt.Errorf("get post: %w", ErrNotFound)))
	assert.Equal(t, "forbidden", Kind(ErrForbidden))
	assert.Equal(t, "unauthorized", Kind(ErrUnauthorized))
	assert.Equal(t, "conflict", Kind(ErrConflict))
	assert.Equal(t, "internal", Kind(errors.New("boom")))

	var verr *ValidationError
	assert.True(t, errors.As(wrapped, &verr))
	assert.Equal(t, "title", verr.Fields[0].Field)
	assert.Contains(t, verr.Error(), "title: is required")
}
