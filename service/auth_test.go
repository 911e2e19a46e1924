package service

import (
	"errors"
	"testing"
	"time"

	dmn "github.com/beka-birhanu/reeborg-api/identity"
	"github.com/beka-birhanu/reeborg-api/infrastruture/token"
	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "correct-horse-battery-staple-42"

func TestNewAuthService(t *testing.T) {
	_, err := NewAuthService(nil, token.NewJwtService("secret", "reeborg-api"))
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = NewAuthService(&mockUserRepo{}, nil)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestRegister(t *testing.T) {
	tokenizer := token.NewJwtService("secret", "reeborg-api")

	t.Run("Saves a new user", func(t *testing.T) {
		users := &mockUserRepo{}
		users.On("ByUsername", "reeborg").Return(nil, i.ErrUserNotFound)
		users.On("Save", mock.MatchedBy(func(u *dmn.User) bool {
			return u.Username == "reeborg" && u.VerifyPassword(strongPassword)
		})).Return(nil)

		auth, err := NewAuthService(users, tokenizer)
		require.NoError(t, err)
		require.NoError(t, auth.Register("reeborg", strongPassword))
		users.AssertExpectations(t)
	})

	t.Run("Rejects a taken username", func(t *testing.T) {
		users := &mockUserRepo{}
		users.On("ByUsername", "reeborg").Return(&dmn.User{Username: "reeborg"}, nil)

		auth, err := NewAuthService(users, tokenizer)
		require.NoError(t, err)
		assert.ErrorIs(t, auth.Register("reeborg", strongPassword), i.ErrUsernameConflict)
		users.AssertNotCalled(t, "Save", mock.Anything)
	})

	t.Run("Rejects an invalid user before touching the repo", func(t *testing.T) {
		users := &mockUserRepo{}
		auth, err := NewAuthService(users, tokenizer)
		require.NoError(t, err)

		assert.ErrorIs(t, auth.Register("r", strongPassword), dmn.ErrUsernameTooShort)
		users.AssertNotCalled(t, "ByUsername", mock.Anything)
	})

	t.Run("Repository failure", func(t *testing.T) {
		failure := errors.New("unexpected error: down")
		users := &mockUserRepo{}
		users.On("ByUsername", "reeborg").Return(nil, failure)

		auth, err := NewAuthService(users, tokenizer)
		require.NoError(t, err)
		assert.ErrorIs(t, auth.Register("reeborg", strongPassword), failure)
	})
}

func TestSignIn(t *testing.T) {
	tokenizer := token.NewJwtService("secret", "reeborg-api")
	hash, err := bcrypt.GenerateFromPassword([]byte(strongPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &dmn.User{ID: uuid.New(), Username: "reeborg", PasswordHash: string(hash)}

	users := &mockUserRepo{}
	users.On("ByUsername", "reeborg").Return(user, nil)
	users.On("ByUsername", "nobody").Return(nil, i.ErrUserNotFound)
	auth, err := NewAuthService(users, tokenizer)
	require.NoError(t, err)

	t.Run("Valid credentials", func(t *testing.T) {
		got, tok, err := auth.SignIn("reeborg", strongPassword)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := tokenizer.Decode(tok)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims["userID"])
		assert.Equal(t, "reeborg", claims["username"])

		exp, ok := claims["exp"].(float64)
		require.True(t, ok)
		assert.InDelta(t, time.Now().Add(24*time.Hour).Unix(), int64(exp), 5)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, _, err := auth.SignIn("reeborg", "not-the-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown user", func(t *testing.T) {
		_, _, err := auth.SignIn("nobody", strongPassword)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
