// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/taanya/pylearn/internal/auth"
	"github.com/taanya/pylearn/internal/config"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/home"
	"github.com/taanya/pylearn/internal/store"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Generator     *exercise.Generator
	Store         *store.Store
	Authenticator *auth.Authenticator
	ConfigManager *config.Manager
	Logger        *slog.Logger
	Home          *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// GeneratorFrom extracts the exercise generator from context.
func GeneratorFrom(ctx context.Context) *exercise.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Generator
	}
	return nil
}

// StoreFrom extracts the flat-file store from context.
func StoreFrom(ctx context.Context) *store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// AuthenticatorFrom extracts the authenticator from context.
func AuthenticatorFrom(ctx context.Context) *auth.Authenticator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Authenticator
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

type userKey struct{}

// WithUser returns a new context carrying the authenticated username.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

// UserFrom extracts the authenticated username from context.
// Returns "" if the request was not authenticated.
func UserFrom(ctx context.Context) string {
	username, _ := ctx.Value(userKey{}).(string)
	return username
}
