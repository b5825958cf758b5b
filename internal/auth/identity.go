package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/GoArmGo/BlogApp/internal/domain"
)

// Identity описывает вызывающего, проверенного по токену.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

type identityKey struct{}

// WithIdentity кладёт identity в контекст запроса.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext достаёт identity, положенную middleware аутентификации.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

// AuthorizeOwner разрешает изменение ресурса только его владельцу.
func AuthorizeOwner(id Identity, ownerID uuid.UUID) error {
	if id.UserID == uuid.Nil || id.UserID != ownerID {
		return fmt.Errorf("user %s is not the owner: %w", id.UserID, domain.ErrForbidden)
	}
	return nil
}
