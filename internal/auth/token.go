package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/GoArmGo/BlogApp/internal/domain"
)

const minSecretBytes = 32

// TokenConfig содержит параметры подписи токенов. Задаётся один раз при старте.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Claims: Subject содержит ID пользователя.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenService выпускает и проверяет HS256 JWT.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService копирует секрет, чтобы последующие изменения исходного среза
// не влияли на подпись.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretBytes)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenService{secret: secret, issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}, nil
}

// TTL возвращает срок жизни выпускаемых токенов.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue выпускает токен для пользователя.
func (s *TokenService) Issue(user domain.UserRef) (string, error) {
	if user.ID == uuid.Nil {
		return "", errors.New("invalid user id")
	}
	now := s.now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись, затем срок действия и издателя, и только после этого
// читает идентичность. Любая ошибка сводится к domain.ErrUnauthorized.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Identity{}, fmt.Errorf("empty token: %w", domain.ErrUnauthorized)
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %v: %w", err, domain.ErrUnauthorized)
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return Identity{}, fmt.Errorf("invalid token subject: %w", domain.ErrUnauthorized)
	}
	return Identity{UserID: userID, Username: claims.Username}, nil
}
