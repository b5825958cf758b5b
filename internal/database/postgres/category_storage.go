package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/GoArmGo/BlogApp/internal/domain"
)

// GormCategoryStorage реализует интерфейс ports.CategoryStorage с использованием GORM
type GormCategoryStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormCategoryStorage создает новый экземпляр GormCategoryStorage
func NewGormCategoryStorage(db *gorm.DB, logger *slog.Logger) *GormCategoryStorage {
	return &GormCategoryStorage{db: db, logger: logger}
}

// CreateCategory сохраняет категорию. Повтор имени даёт domain.ErrConflict.
func (s *GormCategoryStorage) CreateCategory(ctx context.Context, category *domain.Category) error {
	start := time.Now()

	result := s.db.WithContext(ctx).Create(category)
	if result.Error != nil {
		if isDuplicate(result.Error) {
			s.logger.Warn("category name already taken", "name", category.Name)
			return fmt.Errorf("category %q: %w", category.Name, domain.ErrConflict)
		}
		s.logger.Error("failed to save category", "name", category.Name, "error", result.Error)
		return fmt.Errorf("ошибка при сохранении категории с помощью GORM: %w", result.Error)
	}

	s.logger.Info("category saved",
		"category_id", category.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ListCategories возвращает все категории, упорядоченные по имени
func (s *GormCategoryStorage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	start := time.Now()

	categories := []domain.Category{}
	result := s.db.WithContext(ctx).Order("name ASC").Find(&categories)
	if result.Error != nil {
		s.logger.Error("failed to list categories", "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении категорий с помощью GORM: %w", result.Error)
	}

	s.logger.Debug("listed categories",
		"count", len(categories),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return categories, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
