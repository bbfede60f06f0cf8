package main

import (
	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "pylearn",
	Short: "Personal Python learning platform with semantic exercise generation",
	Long: `pylearn is a single-user Python learning backend that generates
practice exercises by semantic template matching over an embedding index.

It provides:
  - Exercise generation steered by topic, difficulty, and free-text context
  - Automatic degradation to standard exercises when the embedding backend
    is rate limited or failing
  - Solution submission with per-test-case feedback and progress tracking
  - PDF ingestion of learning material with difficulty analysis`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pylearn/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "pylearn home directory (default: ~/.pylearn)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
