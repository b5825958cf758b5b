package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoArmGo/BlogApp/internal/auth"
	"github.com/GoArmGo/BlogApp/internal/database/memstore"
	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/logger"
)

func newTestAuthUseCase(t *testing.T) (AuthUseCase, *memstore.Store) {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("usecase_test_secret_0123456789abcdef"),
		Issuer: "blogapp-test",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	store := memstore.New()
	return NewAuthUseCase(store, hasher, tokens, logger.Discard()), store
}

func TestRegisterAndLogin(t *testing.T) {
	uc, store := newTestAuthUseCase(t)
	ctx := context.Background()

	user, err := uc.Register(ctx, Credentials{Username: "  alice ", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	stored, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	res, err := uc.Login(ctx, Credentials{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, user.Ref(), res.User)

	id, err := uc.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	uc, _ := newTestAuthUseCase(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, Credentials{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	_, err = uc.Register(ctx, Credentials{Username: "alice", Password: "other"})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	uc, _ := newTestAuthUseCase(t)

	_, err := uc.Register(context.Background(), Credentials{Username: "   ", Password: ""})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["username"])
	assert.Equal(t, "is required", fields["password"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	uc, _ := newTestAuthUseCase(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, Credentials{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	_, wrongPassword := uc.Login(ctx, Credentials{Username: "alice", Password: "pw2"})
	_, unknownUser := uc.Login(ctx, Credentials{Username: "nobody", Password: "pw1"})

	require.ErrorIs(t, wrongPassword, domain.ErrUnauthorized)
	require.ErrorIs(t, unknownUser, domain.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	uc, _ := newTestAuthUseCase(t)
	_, err := uc.Authenticate("garbage")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterPasswordLimitCountsBytes(t *testing.T) {
	uc, _ := newTestAuthUseCase(t)
	ctx := context.Background()

	// 60 символов кириллицы занимают 120 байт
	_, err := uc.Register(ctx, Credentials{Username: "bob", Password: strings.Repeat("пароль", 10)})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "password", verr.Fields[0].Field)
	assert.Equal(t, "must be at most 72 bytes", verr.Fields[0].Message)

	// ровно 72 байта проходят
	_, err = uc.Register(ctx, Credentials{Username: "bob", Password: strings.Repeat("пароль", 6)})
	require.NoError(t, err)
}
