package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/domain"
)

// CategoryInput содержит имя новой категории.
type CategoryInput struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// CategoryUseCase определяет интерфейс работы со справочником категорий
type CategoryUseCase interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error)
}

type categoryUseCase struct {
	categories ports.CategoryStorage
	validator  *inputValidator
	logger     *slog.Logger
}

// NewCategoryUseCase создает новый экземпляр CategoryUseCase
func NewCategoryUseCase(categories ports.CategoryStorage, logger *slog.Logger) CategoryUseCase {
	return &categoryUseCase{
		categories: categories,
		validator:  newInputValidator(),
		logger:     logger,
	}
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: list categories: %w", err)
	}
	return categories, nil
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := uc.validator.Struct(in); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.categories.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("usecase: create category %q: %w", in.Name, err)
	}

	uc.logger.Info("category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}
