package exercise

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/taanya/pylearn/internal/embedding"
)

type genClock struct {
	mu sync.Mutex
	t  time.Time
}

func newGenClock() *genClock {
	return &genClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *genClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *genClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type genFixture struct {
	gen      *Generator
	provider *embedding.MockProvider
	guard    *embedding.Guard
	clock    *genClock
}

func newGenFixture(t *testing.T, provider *embedding.MockProvider) *genFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := newGenClock()
	guard := embedding.NewGuard(embedding.GuardConfig{
		Logger: logger,
		Now:    clock.now,
	})
	cache := embedding.NewCache(filepath.Join(t.TempDir(), "embeddings.json"), logger)

	gen := NewGenerator(GeneratorConfig{
		Provider:       provider,
		Guard:          guard,
		Cache:          cache,
		Library:        testLibrary(),
		Logger:         logger,
		RetryBaseDelay: time.Millisecond,
	})
	return &genFixture{gen: gen, provider: provider, guard: guard, clock: clock}
}

func TestGeneratorGenerate(t *testing.T) {
	t.Run("semantic match on the happy path", func(t *testing.T) {
		f := newGenFixture(t, embedding.NewMockProvider())

		ex, err := f.gen.Generate(context.Background(), "variables", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if ex.Fallback {
			t.Error("expected a semantic match, got fallback")
		}
		if ex.Source != SourceSemanticMatch {
			t.Errorf("expected source %q, got %q", SourceSemanticMatch, ex.Source)
		}
		if _, _, ok := f.gen.library.FindByKey(ex.ID); !ok {
			t.Errorf("expected id %q to be a template key", ex.ID)
		}
	})

	t.Run("index is built once and reused", func(t *testing.T) {
		provider := embedding.NewMockProvider()
		f := newGenFixture(t, provider)

		if _, err := f.gen.Generate(context.Background(), "variables", "beginner", ""); err != nil {
			t.Fatal(err)
		}
		afterFirst := provider.EmbedCalls()

		if _, err := f.gen.Generate(context.Background(), "variables", "beginner", ""); err != nil {
			t.Fatal(err)
		}
		// Only the query embedding, not a corpus rebuild.
		if got := provider.EmbedCalls(); got != afterFirst+1 {
			t.Errorf("expected %d embed calls, got %d", afterFirst+1, got)
		}
	})

	t.Run("quota exhaustion serves fallback without backend calls", func(t *testing.T) {
		provider := embedding.NewMockProvider()
		f := newGenFixture(t, provider)

		for i := 0; i < embedding.DefaultCallsPerHour; i++ {
			f.guard.RecordCall()
		}

		ex, err := f.gen.Generate(context.Background(), "variables", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !ex.Fallback {
			t.Error("expected fallback when quota is exhausted")
		}
		if provider.EmbedCalls() != 0 {
			t.Errorf("expected no backend calls, got %d", provider.EmbedCalls())
		}
	})

	t.Run("quota frees up once the window rolls past", func(t *testing.T) {
		f := newGenFixture(t, embedding.NewMockProvider())

		for i := 0; i < embedding.DefaultCallsPerHour; i++ {
			f.guard.RecordCall()
		}
		f.clock.advance(61 * time.Minute)

		ex, err := f.gen.Generate(context.Background(), "variables", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if ex.Fallback {
			t.Error("expected semantic match after the window rolled")
		}
	})

	t.Run("repeated backend errors trip the cooldown", func(t *testing.T) {
		provider := embedding.NewMockProvider()
		provider.ShouldFail = true
		f := newGenFixture(t, provider)

		// Corpus embedding retries twice per request; the third failure
		// lands on the second request and trips the threshold.
		for i := 0; i < 2; i++ {
			ex, err := f.gen.Generate(context.Background(), "variables", "beginner", "")
			if err != nil {
				t.Fatalf("Generate %d failed: %v", i, err)
			}
			if !ex.Fallback {
				t.Errorf("Generate %d: expected fallback", i)
			}
		}
		if !f.guard.InCooldown() {
			t.Error("expected guard in cooldown after repeated errors")
		}

		callsBefore := provider.EmbedCalls()
		ex, err := f.gen.Generate(context.Background(), "variables", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !ex.Fallback {
			t.Error("expected fallback during cooldown")
		}
		if provider.EmbedCalls() != callsBefore {
			t.Error("expected no backend calls during cooldown")
		}
	})

	t.Run("backend rate limit enters cooldown immediately", func(t *testing.T) {
		provider := embedding.NewMockProvider()
		provider.RateLimited = true
		f := newGenFixture(t, provider)

		ex, err := f.gen.Generate(context.Background(), "variables", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !ex.Fallback {
			t.Error("expected fallback after rate limit")
		}
		if !f.guard.InCooldown() {
			t.Error("expected immediate cooldown after rate limit")
		}
		if got := f.guard.RemainingCooldownMinutes(); got != 60 {
			t.Errorf("expected 60 minutes remaining, got %d", got)
		}
		// A single attempt, not the full retry budget.
		if provider.EmbedCalls() != 1 {
			t.Errorf("expected 1 embed call, got %d", provider.EmbedCalls())
		}
	})

	t.Run("failed init is retried on the next request", func(t *testing.T) {
		provider := embedding.NewMockProvider()
		provider.FailInit = true
		f := newGenFixture(t, provider)

		ex, err := f.gen.Generate(context.Background(), "variables", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !ex.Fallback {
			t.Error("expected fallback while init fails")
		}

		provider.FailInit = false
		ex, err = f.gen.Generate(context.Background(), "variables", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if ex.Fallback {
			t.Error("expected semantic match after init recovers")
		}
	})

	t.Run("unknown topic degrades to fallback", func(t *testing.T) {
		f := newGenFixture(t, embedding.NewMockProvider())

		ex, err := f.gen.Generate(context.Background(), "decorators", "beginner", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !ex.Fallback {
			t.Error("expected fallback for uncovered topic")
		}
	})

	t.Run("undeclared fallback tier surfaces as error", func(t *testing.T) {
		provider := embedding.NewMockProvider()
		provider.RateLimited = true
		f := newGenFixture(t, provider)

		if _, err := f.gen.Generate(context.Background(), "variables", "expert", ""); err == nil {
			t.Fatal("expected a configuration error for the undeclared tier")
		}
	})
}

func TestGeneratorGenerateRandom(t *testing.T) {
	t.Run("blueprint hit skips the embedding backend", func(t *testing.T) {
		provider := embedding.NewMockProvider()
		f := newGenFixture(t, provider)

		ex, err := f.gen.GenerateRandom("loops", "beginner")
		if err != nil {
			t.Fatalf("GenerateRandom failed: %v", err)
		}
		if ex.Source != SourceRandomTemplate {
			t.Errorf("expected source %q, got %q", SourceRandomTemplate, ex.Source)
		}
		if ex.Fallback {
			t.Error("expected a blueprint exercise, got fallback")
		}
		if provider.EmbedCalls() != 0 {
			t.Errorf("expected no backend calls, got %d", provider.EmbedCalls())
		}
	})

	t.Run("uncovered topic degrades to fallback", func(t *testing.T) {
		f := newGenFixture(t, embedding.NewMockProvider())

		ex, err := f.gen.GenerateRandom("decorators", "beginner")
		if err != nil {
			t.Fatalf("GenerateRandom failed: %v", err)
		}
		if !ex.Fallback {
			t.Error("expected fallback for a topic no blueprint covers")
		}
		if ex.Source != SourceFallback {
			t.Errorf("expected source %q, got %q", SourceFallback, ex.Source)
		}
	})
}

func TestGeneratorStatus(t *testing.T) {
	f := newGenFixture(t, embedding.NewMockProvider())

	st := f.gen.Status()
	if st.IndexReady {
		t.Error("expected index not ready before first request")
	}
	if st.Templates != f.gen.library.Len() {
		t.Errorf("expected %d templates, got %d", f.gen.library.Len(), st.Templates)
	}

	if _, err := f.gen.Generate(context.Background(), "variables", "beginner", ""); err != nil {
		t.Fatal(err)
	}

	st = f.gen.Status()
	if !st.IndexReady {
		t.Error("expected index ready after first request")
	}
	if st.IndexEntries != f.gen.library.Len() {
		t.Errorf("expected %d index entries, got %d", f.gen.library.Len(), st.IndexEntries)
	}
	if st.Guard.CallsInWindow == 0 {
		t.Error("expected recorded backend calls")
	}
}

func TestGeneratorAvailability(t *testing.T) {
	f := newGenFixture(t, embedding.NewMockProvider())

	ok, _ := f.gen.Availability()
	if !ok {
		t.Fatal("expected available initially")
	}

	for i := 0; i < embedding.DefaultCallsPerHour; i++ {
		f.guard.RecordCall()
	}
	ok, cause := f.gen.Availability()
	if ok {
		t.Error("expected unavailable at quota")
	}
	if cause != nil {
		t.Error("quota exhaustion carries no cooldown cause")
	}
}
