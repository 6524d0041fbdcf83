package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t, auth.SHA1Hasher{})
	ctx := context.Background()

	u, err := env.users.Register(ctx, " bob@dylan.com ", "toto1234!")
	require.NoError(t, err)
	assert.Equal(t, "bob@dylan.com", u.Email)
	assert.Equal(t, "89cad29e3ebc1035b29b1478a8e70854f25fa2b2", u.PasswordHash)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"missing email", "", "x", ErrMissingEmail},
		{"missing password", "a@b.c", "", ErrMissingPassword},
		{"duplicate", "bob@dylan.com", "other", ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, common.ErrorBadRequest)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	for _, hasher := range []auth.PasswordHasher{auth.SHA1Hasher{}, auth.BcryptHasher{Cost: 4}} {
		env := newTestEnv(t, hasher)
		ctx := context.Background()

		u, err := env.users.Register(ctx, "alice@example.com", "se:cret")
		require.NoError(t, err)

		token, err := env.users.Login(ctx, basic("alice@example.com", "se:cret"))
		require.NoError(t, err)

		userID, ok, err := env.sessions.Resolve(ctx, token)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, u.ID, userID)

		for _, header := range []string{
			basic("alice@example.com", "wrong"),
			basic("nobody@example.com", "se:cret"),
			"Bearer abc",
			"Basic !!!",
			"",
		} {
			_, err := env.users.Login(ctx, header)
			assert.ErrorIs(t, err, common.ErrorUnauthorized, header)
		}
	}
}

func TestUserService_Logout(t *testing.T) {
	env := newTestEnv(t, auth.SHA1Hasher{})
	ctx := context.Background()
	_, token := env.signUp(t, "alice@example.com", "secret")

	require.NoError(t, env.users.Logout(ctx, token))

	_, ok, err := env.sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, env.users.Logout(ctx, token), common.ErrorUnauthorized)
	assert.ErrorIs(t, env.users.Logout(ctx, ""), common.ErrorUnauthorized)
}

func TestUserService_Me(t *testing.T) {
	env := newTestEnv(t, auth.SHA1Hasher{})
	ctx := context.Background()
	userID, token := env.signUp(t, "alice@example.com", "secret")

	u, err := env.users.Me(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = env.users.Me(ctx, "bogus")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
