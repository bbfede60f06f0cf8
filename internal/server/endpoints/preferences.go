package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/store"
	"github.com/taanya/pylearn/internal/svcctx"
)

// GetPreferencesEndpoint handles GET /preferences.
type GetPreferencesEndpoint struct{}

func (e *GetPreferencesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/preferences", e.handler
}

func (e *GetPreferencesEndpoint) RequiresAuth() bool { return true }

func (e *GetPreferencesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p, err := svcctx.StoreFrom(r.Context()).GetPreferences()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *GetPreferencesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show stored preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var p store.Preferences
			if err := client.Get(cmd.Context(), "/preferences", &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
}

// UpdatePreferencesEndpoint handles POST /preferences/update. The body
// replaces the whole record; theme and font size are validated.
type UpdatePreferencesEndpoint struct{}

func (e *UpdatePreferencesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/preferences/update", e.handler
}

func (e *UpdatePreferencesEndpoint) RequiresAuth() bool { return true }

func (e *UpdatePreferencesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var p store.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if p.Theme != "dark" && p.Theme != "light" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid theme %q (dark or light)", p.Theme))
		return
	}
	if p.FontSize < 8 || p.FontSize > 32 {
		writeError(w, http.StatusBadRequest, "font size must be between 8 and 32")
		return
	}

	if err := svcctx.StoreFrom(r.Context()).SavePreferences(&p); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *UpdatePreferencesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		theme         string
		codeFont      string
		fontSize      int
		sidebarOpen   bool
		autoComplete  bool
		notifications bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update preferences",
		Long: `Update stored preferences. Flags you do not set keep their
current server-side values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			// Start from the current record so unset flags are preserved.
			var p store.Preferences
			if err := client.Get(cmd.Context(), "/preferences", &p); err != nil {
				return err
			}
			if cmd.Flags().Changed("theme") {
				p.Theme = theme
			}
			if cmd.Flags().Changed("code-font") {
				p.CodeFont = codeFont
			}
			if cmd.Flags().Changed("font-size") {
				p.FontSize = fontSize
			}
			if cmd.Flags().Changed("sidebar") {
				p.SidebarOpen = sidebarOpen
			}
			if cmd.Flags().Changed("autocomplete") {
				p.AutoComplete = autoComplete
			}
			if cmd.Flags().Changed("notifications") {
				p.Notifications = notifications
			}

			if err := client.Post(cmd.Context(), "/preferences/update", p, &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: dark or light")
	cmd.Flags().StringVar(&codeFont, "code-font", "", "editor font family")
	cmd.Flags().IntVar(&fontSize, "font-size", 0, "editor font size (8-32)")
	cmd.Flags().BoolVar(&sidebarOpen, "sidebar", true, "show the sidebar")
	cmd.Flags().BoolVar(&autoComplete, "autocomplete", true, "enable code completion")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "enable notifications")
	return cmd
}
