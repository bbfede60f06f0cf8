package main

import (
	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running pylearn server via HTTP.

These commands require a running server (pylearn serve). Authenticated
commands read the session token from the PYLEARN_TOKEN environment
variable; obtain one with 'pylearn api login'.

Examples:
  pylearn api health                         # Check server health
  pylearn api login -u taanya -p <password>  # Obtain a session token
  pylearn api exercises generate -t loops -d beginner
  pylearn api exercises list                 # List stored exercises
  pylearn api progress                       # Show learning progress`,
}

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "Exercise generation and submission commands",
}

var pdfsCmd = &cobra.Command{
	Use:   "pdfs",
	Short: "Learning material (PDF) commands",
}

var preferencesCmd = &cobra.Command{
	Use:   "preferences",
	Short: "UI preference commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8000", "Server URL",
	)

	// Health and session commands at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.LoginEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.LogoutEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ProgressEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.AvailabilityEndpoint{}).Command(getServerURL))

	// Exercises as subcommand group
	for _, ep := range endpoints.ExerciseCommands() {
		exercisesCmd.AddCommand(ep.Command(getServerURL))
	}

	// PDFs as subcommand group
	for _, ep := range endpoints.PDFCommands() {
		pdfsCmd.AddCommand(ep.Command(getServerURL))
	}

	// UI preferences as subcommand group
	for _, ep := range endpoints.PreferenceCommands() {
		preferencesCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(exercisesCmd)
	apiCmd.AddCommand(pdfsCmd)
	apiCmd.AddCommand(preferencesCmd)

	rootCmd.AddCommand(apiCmd)
}
