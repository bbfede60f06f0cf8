package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/store"
	"github.com/taanya/pylearn/internal/svcctx"
)

// ProgressEndpoint handles GET /progress for the authenticated user.
type ProgressEndpoint struct{}

func (e *ProgressEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/progress", e.handler
}

func (e *ProgressEndpoint) RequiresAuth() bool { return true }

func (e *ProgressEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	username := svcctx.UserFrom(r.Context())
	p, err := svcctx.StoreFrom(r.Context()).GetProgress(username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *ProgressEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show your attempt history and completed exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var p store.Progress
			if err := client.Get(cmd.Context(), "/progress", &p); err != nil {
				return err
			}
			fmt.Printf("Attempts:  %d\n", len(p.Attempts))
			fmt.Printf("Completed: %d\n", len(p.Completed))
			for id := range p.Completed {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	}
}
