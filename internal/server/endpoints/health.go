// Package endpoints defines every HTTP route and its paired CLI command.
package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/svcctx"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresAuth() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Generator exercise.Status `json:"generator"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresAuth() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}
	if gen := svcctx.GeneratorFrom(r.Context()); gen != nil {
		resp.Generator = gen.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Backend: %s (%s)\n", resp.Generator.Backend, resp.Generator.Model)
			fmt.Printf("Templates: %d (indexed: %d)\n", resp.Generator.Templates, resp.Generator.IndexEntries)
			fmt.Printf("Calls: %d/%d in window\n", resp.Generator.Guard.CallsInWindow, resp.Generator.Guard.CallQuota)
			if resp.Generator.Guard.InCooldown {
				fmt.Printf("Cooldown: %d minutes remaining\n", resp.Generator.Guard.CooldownMinutes)
			}
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// ReadyResponse is the response for the readiness endpoint.
type ReadyResponse struct {
	Status     string `json:"status"`
	Templates  int    `json:"templates"`
	IndexReady bool   `json:"index_ready"`
}

// ReadyEndpoint handles GET /ready. The semantic-match index builds
// lazily on the first generation request, so index_ready false is not a
// failure state; templates present is what readiness means here.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresAuth() bool { return false }

func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	gen := svcctx.GeneratorFrom(r.Context())
	if gen == nil {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "starting"})
		return
	}

	status := gen.Status()
	resp := ReadyResponse{
		Status:     "ok",
		Templates:  status.Templates,
		IndexReady: status.IndexReady,
	}
	if status.Templates == 0 {
		resp.Status = "no templates loaded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ReadyResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s (%d templates, index ready: %v)\n",
				resp.Status, resp.Templates, resp.IndexReady)
			return nil
		},
	}
}
