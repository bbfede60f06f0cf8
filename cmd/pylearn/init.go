package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/config"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/home"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the pylearn home directory",
	Long: `Initialize the pylearn home directory with a default config file
and a starter exercise template library.

Secrets are referenced as environment variables in the config:
  PYLEARN_PASSWORD    login password for the single user
  PYLEARN_JWT_SECRET  session token signing secret
  OPENAI_API_KEY      embedding backend API key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			fmt.Printf("Config already exists at %s (use --force to overwrite)\n", h.ConfigPath())
		} else {
			if err := config.WriteDefault(h.ConfigPath()); err != nil {
				return err
			}
			fmt.Printf("Wrote config to %s\n", h.ConfigPath())
		}

		if h.TemplatesExist() && !initForce {
			fmt.Printf("Templates already exist at %s (use --force to overwrite)\n", h.TemplatesPath())
		} else {
			if err := exercise.WriteTemplates(h.TemplatesPath(), exercise.DefaultTemplates()); err != nil {
				return err
			}
			fmt.Printf("Wrote starter templates to %s\n", h.TemplatesPath())
		}

		fmt.Printf("\npylearn home initialized at %s\n", h.Path())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config and templates")
	rootCmd.AddCommand(initCmd)
}
