package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/logger"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Category{}))
	return db
}

func TestGormCategoryStorage(t *testing.T) {
	s := NewGormCategoryStorage(setupSQLite(t), logger.Discard())
	ctx := context.Background()

	for _, name := range []string{"Travel", "Go"} {
		require.NoError(t, s.CreateCategory(ctx, &domain.Category{ID: uuid.New(), Name: name, CreatedAt: time.Now()}))
	}

	err := s.CreateCategory(ctx, &domain.Category{ID: uuid.New(), Name: "Go", CreatedAt: time.Now()})
	require.ErrorIs(t, err, domain.ErrConflict)

	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Go", list[0].Name)
	assert.Equal(t, "Travel", list[1].Name)
}

func TestGormCategoryStorageEmpty(t *testing.T) {
	s := NewGormCategoryStorage(setupSQLite(t), logger.Discard())

	list, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
