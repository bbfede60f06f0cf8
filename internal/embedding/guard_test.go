package embedding

import (
	"errors"
	"testing"
	"time"
)

// fakeClock provides a controllable time source for guard tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGuard(clock *fakeClock, quota int) *Guard {
	return NewGuard(GuardConfig{
		CallsPerHour: quota,
		Now:          clock.now,
	})
}

func TestGuardQuota(t *testing.T) {
	t.Run("rejects call over quota", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGuard(clock, 50)

		for i := 0; i < 50; i++ {
			if !g.CanCall() {
				t.Fatalf("CanCall() = false at call %d, want true", i+1)
			}
			g.RecordCall()
		}
		if g.CanCall() {
			t.Error("CanCall() = true after quota exhausted")
		}
	})

	t.Run("window rolls past oldest call", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGuard(clock, 5)

		for i := 0; i < 5; i++ {
			g.RecordCall()
		}
		if g.CanCall() {
			t.Fatal("CanCall() = true with full window")
		}

		clock.advance(61 * time.Minute)
		if !g.CanCall() {
			t.Error("CanCall() = false after window rolled past oldest call")
		}
	})

	t.Run("failures still consume quota", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGuard(clock, 3)

		for i := 0; i < 3; i++ {
			g.RecordCall()
			g.RecordFailure(errors.New("transient"))
		}
		if g.CanCall() {
			t.Error("CanCall() = true after quota consumed by failed calls")
		}
	})
}

func TestGuardCooldown(t *testing.T) {
	t.Run("enters cooldown after consecutive errors", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGuard(clock, 50)

		var unavailable *UnavailableError
		for i := 0; i < 3; i++ {
			err := g.RecordFailure(errors.New("backend exploded"))
			if i < 2 && err != nil {
				t.Fatalf("RecordFailure() returned error at count %d: %v", i+1, err)
			}
			if i == 2 {
				if !errors.As(err, &unavailable) {
					t.Fatalf("RecordFailure() = %v, want *UnavailableError", err)
				}
			}
		}
		if unavailable.RateLimited {
			t.Error("RateLimited = true for generic error streak")
		}
		if !g.InCooldown() {
			t.Error("InCooldown() = false after error threshold")
		}
	})

	t.Run("rate limit error enters cooldown immediately", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGuard(clock, 50)

		err := g.RecordFailure(errors.New("429: rate limit exceeded"))
		var unavailable *UnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("RecordFailure() = %v, want *UnavailableError", err)
		}
		if !unavailable.RateLimited {
			t.Error("RateLimited = false for rate-limit error")
		}
		if got := g.RemainingCooldownMinutes(); got != 60 {
			t.Errorf("RemainingCooldownMinutes() = %d, want 60", got)
		}
	})

	t.Run("cooldown auto-clears after period", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGuard(clock, 50)

		for i := 0; i < 3; i++ {
			g.RecordFailure(errors.New("boom"))
		}
		if !g.InCooldown() {
			t.Fatal("InCooldown() = false after threshold")
		}

		clock.advance(30 * time.Minute)
		if !g.InCooldown() {
			t.Error("InCooldown() = false halfway through cooldown")
		}
		if got := g.RemainingCooldownMinutes(); got != 30 {
			t.Errorf("RemainingCooldownMinutes() = %d, want 30", got)
		}

		clock.advance(31 * time.Minute)
		if g.InCooldown() {
			t.Error("InCooldown() = true after cooldown elapsed")
		}
		if got := g.RemainingCooldownMinutes(); got != 0 {
			t.Errorf("RemainingCooldownMinutes() = %d, want 0", got)
		}
	})

	t.Run("success resets error count", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGuard(clock, 50)

		g.RecordFailure(errors.New("one"))
		g.RecordFailure(errors.New("two"))
		g.RecordSuccess()
		if err := g.RecordFailure(errors.New("three")); err != nil {
			t.Errorf("RecordFailure() after reset = %v, want nil", err)
		}
		if g.InCooldown() {
			t.Error("InCooldown() = true after error count was reset")
		}
	})
}

func TestGuardStatus(t *testing.T) {
	clock := newFakeClock()
	g := newTestGuard(clock, 10)

	g.RecordCall()
	g.RecordCall()
	g.RecordFailure(errors.New("x"))

	st := g.Status()
	if st.CallsInWindow != 2 {
		t.Errorf("CallsInWindow = %d, want 2", st.CallsInWindow)
	}
	if st.CallQuota != 10 {
		t.Errorf("CallQuota = %d, want 10", st.CallQuota)
	}
	if st.ConsecutiveErrors != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", st.ConsecutiveErrors)
	}
	if st.InCooldown {
		t.Error("InCooldown = true with one failure")
	}
}

func TestIsRateLimitError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection reset"), false},
		{"rate limit text", errors.New("Rate Limit exceeded, slow down"), true},
		{"wrapped rate limit", errors.New("embed failed: rate limit hit"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRateLimitError(tc.err); got != tc.want {
				t.Errorf("IsRateLimitError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
