package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/BlogApp/internal/usecase"
)

// CategoryHandler — обработчик справочника категорий.
type CategoryHandler struct {
	categoryUseCase usecase.CategoryUseCase
	logger          *slog.Logger
}

// NewCategoryHandler создаёт новый экземпляр CategoryHandler.
func NewCategoryHandler(uc usecase.CategoryUseCase, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categoryUseCase: uc, logger: logger}
}

// ListCategories обрабатывает GET /categories.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryUseCase.ListCategories(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, categories, h.logger)
}

// CreateCategory обрабатывает POST /categories.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in usecase.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, h.logger)
		return
	}

	category, err := h.categoryUseCase.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	h.logger.Info("category created", "category_id", category.ID)
	respondWithJSON(w, http.StatusCreated, category, h.logger)
}
