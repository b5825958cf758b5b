package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/usecase"
)

// AuthHandler — обработчик регистрации и входа.
type AuthHandler struct {
	authUseCase usecase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(uc usecase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authUseCase: uc, logger: logger}
}

type registerResponse struct {
	Message string         `json:"message"`
	User    domain.UserRef `json:"user"`
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds usecase.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, err, h.logger)
		return
	}

	user, err := h.authUseCase.Register(r.Context(), creds)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, registerResponse{Message: "User registered", User: user.Ref()}, h.logger)
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds usecase.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, err, h.logger)
		return
	}

	res, err := h.authUseCase.Login(r.Context(), creds)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password", h.logger)
			return
		}
		writeError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, res, h.logger)
}
