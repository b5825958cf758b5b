package handler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/GoArmGo/BlogApp/internal/auth"
	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/usecase"
)

// запас на текстовые поля multipart-формы сверх лимита картинки
const formOverhead = 1 << 20

// PostHandler — обработчик HTTP-запросов для постов и комментариев.
type PostHandler struct {
	postUseCase    usecase.PostUseCase
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewPostHandler создаёт новый экземпляр PostHandler.
func NewPostHandler(uc usecase.PostUseCase, maxUploadBytes int64, logger *slog.Logger) *PostHandler {
	return &PostHandler{postUseCase: uc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// postForm: nil означает, что поле не прислали.
type postForm struct {
	Title    *string              `json:"title"`
	Content  *string              `json:"content"`
	Category *string              `json:"category"`
	Image    *usecase.ImageUpload `json:"-"`
	release  func()
}

// ListPosts обрабатывает GET /posts?page&limit.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	result, err := h.postUseCase.ListPosts(r.Context(), page, limit)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, result, h.logger)
}

// GetPost обрабатывает GET /posts/{id}.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	post, err := h.postUseCase.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, post, h.logger)
}

// CreatePost принимает multipart: title, content, category, image (необязательно).
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized, h.logger)
		return
	}

	form, err := h.readPostForm(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	defer form.release()

	post, err := h.postUseCase.CreatePost(r.Context(), caller, usecase.CreatePostInput{
		Title:    deref(form.Title),
		Content:  deref(form.Content),
		Category: deref(form.Category),
		Image:    form.Image,
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, post, h.logger)
}

// UpdatePost меняет только присланные поля.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	form, err := h.readPostForm(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	defer form.release()

	post, err := h.postUseCase.UpdatePost(r.Context(), id, caller, usecase.UpdatePostInput{
		Title:    form.Title,
		Content:  form.Content,
		Category: form.Category,
		Image:    form.Image,
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, post, h.logger)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.postUseCase.DeletePost(r.Context(), id, caller); err != nil {
		writeError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Post deleted"}, h.logger)
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	comments, err := h.postUseCase.ListComments(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, comments, h.logger)
}

// AddComment обрабатывает POST /posts/{id}/comments.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var in usecase.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, h.logger)
		return
	}

	comment, err := h.postUseCase.AddComment(r.Context(), id, caller, in)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, comment, h.logger)
}

// ServeImage отдаёт сохранённую картинку поста.
func (h *PostHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	rc, err := h.postUseCase.OpenImage(r.Context(), key)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 3072)
	head, _ := br.Peek(3072)

	contentType := mimetype.Detect(head).String()
	if !usecase.IsAllowedImageType(contentType) {
		contentType = "application/octet-stream"
		w.Header().Set("Content-Disposition", "attachment")
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, br); err != nil {
		h.logger.Error("failed to stream image", "object_key", key, "error", err)
	}
}

// readPostForm разбирает multipart-форму поста. JSON-тело тоже принимается,
// но без картинки.
func (h *PostHandler) readPostForm(w http.ResponseWriter, r *http.Request) (*postForm, error) {
	form := &postForm{release: func() {}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, form); err != nil {
			return nil, err
		}
		return form, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.FieldInvalid("image", fmt.Sprintf("must be at most %d bytes", h.maxUploadBytes))
		}
		return nil, domain.FieldInvalid("body", "must be multipart/form-data")
	}

	form.Title = formValue(r.MultipartForm, "title")
	form.Content = formValue(r.MultipartForm, "content")
	form.Category = formValue(r.MultipartForm, "category")

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		form.release = func() { _ = r.MultipartForm.RemoveAll() }
	case err != nil:
		_ = r.MultipartForm.RemoveAll()
		return nil, domain.FieldInvalid("image", "could not be read")
	default:
		form.Image = &usecase.ImageUpload{Reader: file, Size: header.Size, Filename: header.Filename}
		form.release = func() {
			_ = file.Close()
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return form, nil
}

func formValue(form *multipart.Form, name string) *string {
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
