package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestManager(login LoginFunc) *Manager {
	return &Manager{
		login:    login,
		username: "user1",
		password: "pass1",
	}
}

func TestToken_CachesUntilExpiry(t *testing.T) {
	logins := 0
	manager := newTestManager(func(_ context.Context, username, password string) (string, error) {
		logins++
		assert.Equal(t, "user1", username)
		assert.Equal(t, "pass1", password)
		return signedToken(t, time.Now().Add(time.Hour)), nil
	})

	first, err := manager.Token(context.Background())
	require.NoError(t, err)
	second, err := manager.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, logins)
}

func TestToken_RefreshesExpiredToken(t *testing.T) {
	logins := 0
	manager := newTestManager(func(_ context.Context, _, _ string) (string, error) {
		logins++
		// Already inside the 30s renewal window.
		return signedToken(t, time.Now().Add(10*time.Second)), nil
	})

	_, err := manager.Token(context.Background())
	require.NoError(t, err)
	_, err = manager.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, logins)
}

func TestToken_NoCredentialsIsAnonymous(t *testing.T) {
	manager := &Manager{login: func(_ context.Context, _, _ string) (string, error) {
		t.Fatal("login must not be called without credentials")
		return "", nil
	}}

	token, err := manager.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestToken_LoginErrorPropagates(t *testing.T) {
	loginErr := errors.New("401 unauthorized")
	manager := newTestManager(func(_ context.Context, _, _ string) (string, error) {
		return "", loginErr
	})

	_, err := manager.Token(context.Background())
	assert.ErrorIs(t, err, loginErr)
}

func TestToken_OpaqueTokenIsCachedWithoutExpiry(t *testing.T) {
	logins := 0
	manager := newTestManager(func(_ context.Context, _, _ string) (string, error) {
		logins++
		return "not-a-jwt", nil
	})

	first, err := manager.Token(context.Background())
	require.NoError(t, err)
	second, err := manager.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "not-a-jwt", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, logins)
}

func TestClear_ForcesRelogin(t *testing.T) {
	logins := 0
	manager := newTestManager(func(_ context.Context, _, _ string) (string, error) {
		logins++
		return signedToken(t, time.Now().Add(time.Hour)), nil
	})

	_, err := manager.Token(context.Background())
	require.NoError(t, err)
	manager.Clear()
	_, err = manager.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, logins)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	got, err := tokenExpiry(signedToken(t, exp))
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))

	_, err = tokenExpiry("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
