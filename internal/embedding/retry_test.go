package embedding

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetry(t *testing.T) {
	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), 3, time.Millisecond, nil, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if calls != 1 {
			t.Errorf("operation ran %d times, want 1", calls)
		}
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), 3, time.Millisecond, nil, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("operation ran %d times, want 3", calls)
		}
	})

	t.Run("returns last error on exhaustion", func(t *testing.T) {
		calls := 0
		last := errors.New("still broken")
		err := WithRetry(context.Background(), 3, time.Millisecond, nil, func() error {
			calls++
			if calls < 3 {
				return errors.New("earlier failure")
			}
			return last
		})
		if !errors.Is(err, last) {
			t.Errorf("WithRetry() error = %v, want last error", err)
		}
		if calls != 3 {
			t.Errorf("operation ran %d times, want 3", calls)
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, 5, 100*time.Millisecond, nil, func() error {
			return errors.New("fail")
		})
		if err == nil {
			t.Error("WithRetry() error = nil with cancelled context")
		}
	})
}
