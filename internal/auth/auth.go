// Package auth implements the single-user credential and session layer:
// bcrypt-hashed password verification and HMAC-signed bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taanya/pylearn/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken indicates a missing, malformed, or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// UserStore is the persistence the authenticator needs.
type UserStore interface {
	GetUser(username string) (*store.UserRecord, error)
	SaveUser(u *store.UserRecord) error
}

// Config wires an Authenticator.
type Config struct {
	Store    UserStore
	Secret   string
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// Authenticator validates credentials and issues session tokens.
// Each token carries a session id; Logout revokes that session. The
// revocation set is in-memory only, which is enough for a single-user
// local server: a restart invalidates nothing the user still holds.
type Authenticator struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	revoked map[string]struct{}
}

// New creates an authenticator. The signing secret must be non-empty.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Authenticator{
		store:   cfg.Store,
		secret:  []byte(cfg.Secret),
		ttl:     cfg.TokenTTL,
		logger:  cfg.Logger,
		revoked: make(map[string]struct{}),
	}, nil
}

// EnsureUser creates the account with a bcrypt-hashed password if it
// does not exist yet. An existing account is left untouched.
func (a *Authenticator) EnsureUser(username, password string) error {
	if _, err := a.store.GetUser(username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if password == "" {
		return fmt.Errorf("auth: no password configured for user %q", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: failed to hash password: %w", err)
	}

	a.logger.Info("creating user account", "username", username)
	return a.store.SaveUser(&store.UserRecord{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
}

// Login verifies the credentials and returns a signed session token.
func (a *Authenticator) Login(username, password string) (string, error) {
	u, err := a.store.GetUser(username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		a.logger.Warn("failed login attempt", "username", username)
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   u.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a session token and returns the username it was issued to.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	a.mu.Lock()
	_, revoked := a.revoked[claims.ID]
	a.mu.Unlock()
	if revoked {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Logout revokes the session behind a valid token. Revoking an already
// invalid token is not an error.
func (a *Authenticator) Logout(tokenString string) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return
	}

	a.mu.Lock()
	a.revoked[claims.ID] = struct{}{}
	a.mu.Unlock()
	a.logger.Info("session revoked", "username", claims.Subject)
}
