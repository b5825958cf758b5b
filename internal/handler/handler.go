package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GoArmGo/BlogApp/internal/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	// лимит тела JSON-запроса
	maxJSONBytes = 1 << 20
)

// тело ответа с ошибкой
type errorResponse struct {
	Error  string              `json:"error"`
	Kind   string              `json:"kind"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError отправляет JSON-ответ с ошибкой заданного класса.
func respondWithError(w http.ResponseWriter, code int, kind, message string, logger *slog.Logger) {
	respondWithJSON(w, code, errorResponse{Error: message, Kind: kind}, logger)
}

// writeError переводит ошибку usecase-слоя в HTTP-статус. Внутренние ошибки
// логируются, клиент получает только общее сообщение.
func writeError(w http.ResponseWriter, err error, logger *slog.Logger) {
	kind := domain.Kind(err)
	resp := errorResponse{Kind: kind}
	var status int

	switch kind {
	case "validation":
		status = http.StatusBadRequest
		resp.Error = "invalid request"
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
	case "unauthorized":
		status = http.StatusUnauthorized
		resp.Error = "authentication required"
	case "forbidden":
		status = http.StatusForbidden
		resp.Error = "not allowed to modify this resource"
	case "not_found":
		status = http.StatusNotFound
		resp.Error = "resource not found"
	case "conflict":
		status = http.StatusConflict
		resp.Error = "resource already exists"
	default:
		status = http.StatusInternalServerError
		resp.Error = "internal server error"
		logger.Error("request failed", "error", err)
	}

	if status < http.StatusInternalServerError {
		logger.Debug("request rejected", "status", status, "kind", kind, "error", err)
	}
	respondWithJSON(w, status, resp, logger)
}

// decodeJSON читает тело запроса в dst, не больше maxJSONBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.FieldInvalid("body", "must be at most 1 MiB")
		}
		return domain.FieldInvalid("body", "must be a valid JSON object")
	}
	return nil
}

// pathID разбирает UUID из параметра пути. Некорректный id означает отсутствующий ресурс.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", name, raw, domain.ErrNotFound)
	}
	return id, nil
}

// queryInt возвращает положительное число из query-параметра или значение по умолчанию.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// Health отвечает на проверку живости сервиса.
func Health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
