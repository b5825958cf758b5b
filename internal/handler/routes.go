package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoArmGo/BlogApp/internal/usecase"
)

// RouterConfig содержит зависимости HTTP-слоя.
type RouterConfig struct {
	Auth           usecase.AuthUseCase
	Posts          usecase.PostUseCase
	Categories     usecase.CategoryUseCase
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter собирает chi-роутер со всеми маршрутами API.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Logger)
	postHandler := NewPostHandler(cfg.Posts, cfg.MaxUploadBytes, cfg.Logger)
	categoryHandler := NewCategoryHandler(cfg.Categories, cfg.Logger)
	requireAuth := RequireAuth(cfg.Auth, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", Health(cfg.Logger))
	r.Get("/uploads/{key}", postHandler.ServeImage)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.ListPosts)
		r.Get("/{id}", postHandler.GetPost)
		r.Get("/{id}/comments", postHandler.ListComments)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postHandler.CreatePost)
			r.Put("/{id}", postHandler.UpdatePost)
			r.Delete("/{id}", postHandler.DeletePost)
			r.Post("/{id}/comments", postHandler.AddComment)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.ListCategories)
		r.With(requireAuth).Post("/", categoryHandler.CreateCategory)
	})

	return r
}
