package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/BlogApp/internal/database/memstore"
	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/logger"
)

func TestCategories(t *testing.T) {
	uc := NewCategoryUseCase(memstore.New(), logger.Discard())
	ctx := context.Background()

	_, err := uc.CreateCategory(ctx, CategoryInput{Name: "  "})
	require.ErrorIs(t, err, domain.ErrValidation)

	created, err := uc.CreateCategory(ctx, CategoryInput{Name: " Go "})
	require.NoError(t, err)
	assert.Equal(t, "Go", created.Name)

	_, err = uc.CreateCategory(ctx, CategoryInput{Name: "Go"})
	require.ErrorIs(t, err, domain.ErrConflict)

	list, err := uc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}
