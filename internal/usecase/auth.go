package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoArmGo/BlogApp/internal/auth"
	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/domain"
)

// Credentials содержит логин и пароль из запросов регистрации и входа.
type Credentials struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// LoginResult содержит выданный токен и публичные данные пользователя.
type LoginResult struct {
	Token string         `json:"token"`
	User  domain.UserRef `json:"user"`
}

// AuthUseCase определяет интерфейс хранилища учётных данных и выдачи токенов
type AuthUseCase interface {
	// Register создаёт пользователя; занятый username даёт domain.ErrConflict.
	Register(ctx context.Context, creds Credentials) (*domain.User, error)
	// Login проверяет пароль и выпускает токен; любая ошибка учётных данных даёт domain.ErrUnauthorized.
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	// Authenticate проверяет bearer-токен.
	Authenticate(token string) (auth.Identity, error)
}

type authUseCase struct {
	users     ports.UserStorage
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	validator *inputValidator
	logger    *slog.Logger
}

// NewAuthUseCase создает новый экземпляр AuthUseCase
func NewAuthUseCase(users ports.UserStorage, hasher *auth.PasswordHasher, tokens *auth.TokenService, logger *slog.Logger) AuthUseCase {
	return &authUseCase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: newInputValidator(),
		logger:    logger,
	}
}

func (uc *authUseCase) Register(ctx context.Context, creds Credentials) (*domain.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := uc.validator.Struct(creds); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(creds.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.FieldInvalid("password", "must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("usecase: register %q: %w", creds.Username, err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     creds.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: register %q: %w", creds.Username, err)
	}

	uc.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (uc *authUseCase) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := uc.validator.Struct(creds); err != nil {
		return nil, err
	}

	user, err := uc.users.GetUserByUsername(ctx, creds.Username)
	if errors.Is(err, domain.ErrNotFound) {
		uc.hasher.CompareDummy(creds.Password)
		uc.logger.Warn("login failed", "reason", "invalid_credentials")
		return nil, fmt.Errorf("usecase: invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("usecase: login: %w", err)
	}

	if !uc.hasher.Compare(user.PasswordHash, creds.Password) {
		uc.logger.Warn("login failed", "reason", "invalid_credentials")
		return nil, fmt.Errorf("usecase: invalid credentials: %w", domain.ErrUnauthorized)
	}

	token, err := uc.tokens.Issue(user.Ref())
	if err != nil {
		return nil, fmt.Errorf("usecase: issue token: %w", err)
	}

	uc.logger.Info("user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, User: user.Ref()}, nil
}

func (uc *authUseCase) Authenticate(token string) (auth.Identity, error) {
	return uc.tokens.Verify(token)
}
