package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoCredentials = errors.New("no remote credentials configured")
)

// LoginFunc authenticates against the remote API and returns the issued
// token.
type LoginFunc func(ctx context.Context, username, password string) (string, error)

// Manager caches the remote API session token and re-authenticates when it
// expires. Credentials come from REMOTE_API_USER / REMOTE_API_PASSWORD.
type Manager struct {
	mu       sync.Mutex
	login    LoginFunc
	username string
	password string
	token    string
	expires  time.Time
}

// NewManager creates a session manager backed by the given login function.
func NewManager(login LoginFunc) *Manager {
	return &Manager{
		login:    login,
		username: os.Getenv("REMOTE_API_USER"),
		password: os.Getenv("REMOTE_API_PASSWORD"),
	}
}

// Token returns a valid bearer token, logging in if the cached one expired.
// Without configured credentials it returns an empty token, which callers
// treat as anonymous access.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && (m.expires.IsZero() || time.Until(m.expires) > 30*time.Second) {
		return m.token, nil
	}
	if m.username == "" {
		return "", nil
	}

	token, err := m.login(ctx, m.username, m.password)
	if err != nil {
		return "", err
	}
	expires, err := tokenExpiry(token)
	if err != nil {
		log.WithError(err).Warn("remote token has no readable expiry, caching without one")
		expires = time.Time{}
	}
	m.token = token
	m.expires = expires
	log.WithField("user", m.username).Info("remote session established")
	return m.token, nil
}

// Clear drops the cached token, forcing a login on the next request.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expires = time.Time{}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// remote API holds the signing key, locally we only need the deadline.
func tokenExpiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, ErrInvalidToken
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, ErrInvalidToken
	}
	return time.Unix(int64(exp), 0), nil
}
