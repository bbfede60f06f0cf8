package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// ErrMockRateLimited carries rate-limit-flavored text so the guard's
// classification treats it like the real backend's limit.
var ErrMockRateLimited = errors.New("rate limit exceeded")

// MockProvider is a Provider for testing. Vectors are deterministic
// bag-of-token hashes, so identical texts always produce identical
// vectors and texts sharing tokens score higher cosine similarity.
type MockProvider struct {
	// Configurable behavior
	Dim         int
	Latency     time.Duration
	FailInit    bool
	ShouldFail  bool
	RateLimited bool // Fail with rate-limit-flavored error
	FailAfter   int  // Fail after N embed calls (0 = never)

	// State
	embedCalls atomic.Int64
	initCalls  atomic.Int64
}

// NewMockProvider creates a mock provider with sensible defaults.
func NewMockProvider() *MockProvider {
	return &MockProvider{Dim: 32}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return MockName }

// Model returns a fixed mock model identifier.
func (m *MockProvider) Model() string { return "mock-embed-v1" }

// Init simulates backend initialization.
func (m *MockProvider) Init(ctx context.Context) error {
	m.initCalls.Add(1)
	if m.FailInit {
		return errors.New("mock init failure")
	}
	return nil
}

// Embed encodes a single text.
func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch encodes a batch of texts.
func (m *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := m.embedCalls.Add(1)

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.RateLimited {
		return nil, ErrMockRateLimited
	}
	if m.ShouldFail {
		return nil, errors.New("mock embed failure")
	}
	if m.FailAfter > 0 && int(n) > m.FailAfter {
		return nil, errors.New("mock embed failure (fail-after)")
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

// EmbedCalls returns the number of embed calls made.
func (m *MockProvider) EmbedCalls() int {
	return int(m.embedCalls.Load())
}

// InitCalls returns the number of Init calls made.
func (m *MockProvider) InitCalls() int {
	return int(m.initCalls.Load())
}

// vector builds a deterministic L2-normalized bag-of-token vector.
func (m *MockProvider) vector(text string) []float32 {
	v := make([]float32, m.Dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(token))
		rng := rand.New(rand.NewSource(int64(h.Sum64())))
		for i := range v {
			v[i] += float32(rng.NormFloat64())
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}
