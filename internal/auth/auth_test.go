package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laporan/internal/core"
	"laporan/internal/storage/memory"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia123", hash)
	assert.True(t, CheckPassword(hash, "rahasia123"))
	assert.False(t, CheckPassword(hash, "salah"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestTokens_IssueParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	u := core.User{ID: "u1", Username: "admin", Role: core.RoleAdmin}

	raw, exp, err := tokens.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, core.RoleAdmin, claims.Role)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, _, err := tokens.Issue(core.User{ID: "u1", Username: "a", Role: core.RoleUser})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens("other", time.Hour).Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokens("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "a"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), NewTokens("secret", time.Hour), nil)

	created, err := svc.CreateUser(ctx, core.User{Username: " bendahara ", FullName: "Bendahara"}, "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, "bendahara", created.Username)
	assert.Equal(t, core.RoleUser, created.Role)

	session, err := svc.Login(ctx, "bendahara", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, session.User.ID)

	claims, err := svc.Tokens().Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.Subject)

	_, err = svc.Login(ctx, "bendahara", "salah")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = svc.Login(ctx, "nobody", "rahasia123")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestService_CreateUserValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), NewTokens("secret", time.Hour), nil)

	_, err := svc.CreateUser(ctx, core.User{Username: "a"}, "123")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.CreateUser(ctx, core.User{Username: "a", Role: "root"}, "123456")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.CreateUser(ctx, core.User{Username: "a"}, "123456")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, core.User{Username: "A"}, "123456")
	assert.ErrorIs(t, err, core.ErrValidation)
}
