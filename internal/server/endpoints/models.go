package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/svcctx"
)

// AvailabilityResponse reports whether the embedding backend is usable.
type AvailabilityResponse struct {
	Available          bool `json:"available"`
	RetryAfterMinutes  int  `json:"retry_after_minutes,omitempty"`
	RateLimited        bool `json:"rate_limited,omitempty"`
	CallQuotaExhausted bool `json:"call_quota_exhausted,omitempty"`
}

// AvailabilityEndpoint handles GET /models/availability. During cooldown
// it answers 429 (backend rate limit) or 503 (error streak) with a
// Retry-After header in minutes.
type AvailabilityEndpoint struct{}

func (e *AvailabilityEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/models/availability", e.handler
}

func (e *AvailabilityEndpoint) RequiresAuth() bool { return true }

func (e *AvailabilityEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ok, cause := svcctx.GeneratorFrom(r.Context()).Availability()
	if ok {
		writeJSON(w, http.StatusOK, AvailabilityResponse{Available: true})
		return
	}

	if cause == nil {
		// Quota exhausted: not a cooldown, just wait for the window to roll.
		writeJSON(w, http.StatusOK, AvailabilityResponse{
			Available:          false,
			CallQuotaExhausted: true,
		})
		return
	}

	minutes := int(cause.RetryAfter.Minutes())
	w.Header().Set("Retry-After", strconv.Itoa(minutes))
	status := http.StatusServiceUnavailable
	if cause.RateLimited {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, AvailabilityResponse{
		Available:         false,
		RetryAfterMinutes: minutes,
		RateLimited:       cause.RateLimited,
	})
}

func (e *AvailabilityEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "availability",
		Short: "Check embedding backend availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AvailabilityResponse
			if err := client.Get(cmd.Context(), "/models/availability", &resp); err != nil {
				return err
			}
			if resp.Available {
				fmt.Println("Backend available")
			} else if resp.CallQuotaExhausted {
				fmt.Println("Call quota exhausted, waiting for the window to roll")
			}
			return nil
		},
	}
}
