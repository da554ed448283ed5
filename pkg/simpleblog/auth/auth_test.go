package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/auth"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
)

func setupAuth(t *testing.T) (*auth.Service, simpleblog.Repository) {
	repo := memory.New()
	return auth.New(repo, "test-secret"), repo
}

func TestRegister(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user, token, err := svc.Register(ctx, auth.RegisterRequest{
			Name:     "Jane",
			Email:    "jane@example.com",
			Password: "secret123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "jane@example.com", user.Email)
		// The raw password never lands in the stored hash.
		assert.NotEqual(t, "secret123", user.PasswordHash)
		assert.NotEmpty(t, user.PasswordHash)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, _, err := svc.Register(ctx, auth.RegisterRequest{
			Name:     "Imposter",
			Email:    "jane@example.com",
			Password: "other",
		})
		var verr *simpleblog.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields["email"], "email has already been taken")
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, _, err := svc.Register(ctx, auth.RegisterRequest{})
		var verr *simpleblog.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "password")
	})
}

func TestLogin(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, auth.RegisterRequest{
		Name:     "Jane",
		Email:    "jane@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		user, token, err := svc.Login(ctx, "jane@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "jane@example.com", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "secret123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	registered, token, err := svc.Register(ctx, auth.RegisterRequest{
		Name:     "Jane",
		Email:    "jane@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	t.Run("ValidToken", func(t *testing.T) {
		user, err := svc.UserFromToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		_, err := svc.UserFromToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("TokenSignedWithOtherSecret", func(t *testing.T) {
		other, _ := setupAuth(t)
		_, foreignToken, err := other.Register(ctx, auth.RegisterRequest{
			Name:     "Eve",
			Email:    "eve@example.com",
			Password: "secret123",
		})
		require.NoError(t, err)

		otherSecret := auth.New(memory.New(), "different-secret")
		_, err = otherSecret.UserFromToken(ctx, foreignToken)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}
