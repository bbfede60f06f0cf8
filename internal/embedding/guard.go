package embedding

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultCallsPerHour is the backend call quota within the trailing window.
	DefaultCallsPerHour = 50

	// DefaultCooldown is how long the guard stays unavailable after
	// repeated failures or a backend rate limit.
	DefaultCooldown = time.Hour

	// DefaultMaxErrors is the consecutive-error threshold that triggers cooldown.
	DefaultMaxErrors = 3

	// callWindow is the trailing window the call quota applies to.
	callWindow = time.Hour
)

// UnavailableError is returned when a failure pushes the guard into cooldown.
// RateLimited distinguishes the backend's own rate limit (retry after the
// cooldown period) from a longer-term error streak.
type UnavailableError struct {
	RateLimited bool
	RetryAfter  time.Duration
}

func (e *UnavailableError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("backend rate limited, retry in %d minutes", int(e.RetryAfter.Minutes()))
	}
	return fmt.Sprintf("backend unavailable after repeated errors, retry in %d minutes", int(e.RetryAfter.Minutes()))
}

// GuardConfig configures an availability guard.
type GuardConfig struct {
	CallsPerHour int
	Cooldown     time.Duration
	MaxErrors    int
	Logger       *slog.Logger

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Guard gates all embedding-backend calls. It tracks a sliding-window call
// log, a consecutive-error counter, and a cooldown timer. This quota is
// independent of the HTTP layer's per-client request limiter: the guard
// throttles backend calls, not client requests.
type Guard struct {
	mu sync.Mutex

	quota     int
	cooldown  time.Duration
	maxErrors int

	calls         []time.Time
	errorCount    int
	inCooldown    bool
	rateLimited   bool
	cooldownStart time.Time

	now    func() time.Time
	logger *slog.Logger
}

// NewGuard creates a new availability guard.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.CallsPerHour <= 0 {
		cfg.CallsPerHour = DefaultCallsPerHour
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Guard{
		quota:     cfg.CallsPerHour,
		cooldown:  cfg.Cooldown,
		maxErrors: cfg.MaxErrors,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}
}

// CanCall reports whether the trailing-window call count is below quota.
// It does not consume quota; callers that proceed must RecordCall.
func (g *Guard) CanCall() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prune()
	return len(g.calls) < g.quota
}

// RecordCall logs a call attempt into the window. Every attempt counts
// regardless of outcome, so a burst of failures still consumes quota.
func (g *Guard) RecordCall() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, g.now())
}

// RecordSuccess resets the consecutive-error counter.
func (g *Guard) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.errorCount = 0
}

// RecordFailure registers a backend failure. A rate-limit-flavored error
// enters cooldown immediately; otherwise cooldown starts once the
// consecutive-error count reaches the threshold. Returns an
// *UnavailableError when the guard enters cooldown, nil otherwise.
func (g *Guard) RecordFailure(err error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.errorCount++

	if IsRateLimitError(err) {
		g.enterCooldown()
		g.rateLimited = true
		g.logger.Warn("backend rate limited, entering cooldown",
			"retry_after_minutes", int(g.cooldown.Minutes()))
		return &UnavailableError{RateLimited: true, RetryAfter: g.cooldown}
	}

	if g.errorCount >= g.maxErrors {
		g.enterCooldown()
		g.logger.Warn("consecutive backend errors reached threshold, entering cooldown",
			"errors", g.errorCount,
			"threshold", g.maxErrors)
		return &UnavailableError{RetryAfter: g.cooldown}
	}

	return nil
}

// InCooldown reports whether the guard is in cooldown. Cooldown auto-clears
// once the period has elapsed; the clearing request resumes normal operation.
func (g *Guard) InCooldown() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.inCooldown {
		return false
	}
	if g.now().Sub(g.cooldownStart) >= g.cooldown {
		g.inCooldown = false
		g.rateLimited = false
		g.errorCount = 0
		g.logger.Info("cooldown elapsed, resuming backend calls")
		return false
	}
	return true
}

// RemainingCooldown returns the time left in cooldown, zero if not cooling down.
func (g *Guard) RemainingCooldown() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.inCooldown {
		return 0
	}
	remaining := g.cooldown - g.now().Sub(g.cooldownStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingCooldownMinutes returns the remaining cooldown in whole minutes.
func (g *Guard) RemainingCooldownMinutes() int {
	return int(g.RemainingCooldown().Minutes())
}

// GuardStatus reports current guard state.
type GuardStatus struct {
	CallsInWindow     int  `json:"calls_in_window"`
	CallQuota         int  `json:"call_quota"`
	ConsecutiveErrors int  `json:"consecutive_errors"`
	InCooldown        bool `json:"in_cooldown"`
	RateLimited       bool `json:"rate_limited,omitempty"`
	CooldownMinutes   int  `json:"cooldown_minutes_remaining,omitempty"`
}

// Status returns a snapshot of the guard state.
func (g *Guard) Status() GuardStatus {
	inCooldown := g.InCooldown()
	remaining := g.RemainingCooldownMinutes()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune()

	return GuardStatus{
		CallsInWindow:     len(g.calls),
		CallQuota:         g.quota,
		ConsecutiveErrors: g.errorCount,
		InCooldown:        inCooldown,
		RateLimited:       inCooldown && g.rateLimited,
		CooldownMinutes:   remaining,
	}
}

// enterCooldown must be called with the lock held.
func (g *Guard) enterCooldown() {
	g.inCooldown = true
	g.cooldownStart = g.now()
}

// prune drops calls older than the window. Must be called with the lock held.
func (g *Guard) prune() {
	cutoff := g.now().Add(-callWindow)
	kept := g.calls[:0]
	for _, t := range g.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.calls = kept
}
