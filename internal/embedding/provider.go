// Package embedding provides the sentence-embedding backend used for
// template matching, together with the availability guard, retry policy,
// and on-disk cache that sit around it.
package embedding

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

// Provider encodes text into fixed-length vectors.
// All vectors returned by one provider instance come from the same model,
// so similarity scores between them are comparable.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "mock").
	Name() string

	// Model returns the model identifier. Cached indexes record this and
	// are invalidated when it changes.
	Model() string

	// Init prepares the backend for use. Called once per process before
	// the first Embed; safe to call again after a failure.
	Init(ctx context.Context) error

	// Embed encodes a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch encodes a batch of texts in one backend call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrBackendUnavailable indicates the backend is rate-limited or in cooldown.
// Callers divert to the fallback provider instead of surfacing this.
var ErrBackendUnavailable = errors.New("embedding backend unavailable")

// IsRateLimitError reports whether err indicates the backend's own rate
// limit, either as an HTTP 429 from the SDK or as rate-limit-flavored
// error text from a provider that doesn't surface status codes.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
