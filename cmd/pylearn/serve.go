package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/auth"
	"github.com/taanya/pylearn/internal/config"
	"github.com/taanya/pylearn/internal/embedding"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/home"
	"github.com/taanya/pylearn/internal/server"
	"github.com/taanya/pylearn/internal/store"
	"github.com/taanya/pylearn/internal/svcctx"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pylearn server",
	Long: `Start the pylearn HTTP server.

The server loads the exercise template library, connects the embedding
backend behind its availability guard, and serves the exercise, progress,
and PDF APIs. All endpoints except /health and /auth/login require a
bearer token from /auth/login.

Examples:
  pylearn serve                  # Start on default port 8000
  pylearn serve --port 3000      # Start on custom port
  pylearn serve --host 0.0.0.0   # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load configuration, preferring the home config when no
		// explicit --config was given
		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()
		cfg := cfgMgr.Get()

		services, err := buildServices(h, cfg, cfgMgr, logger)
		if err != nil {
			return err
		}

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			ConfigManager: cfgMgr,
			Services:      services,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// buildServices wires the core services from configuration: template
// library, embedding provider behind its guard, exercise generator,
// flat-file store, and authenticator.
func buildServices(h *home.Dir, cfg *config.Config, cfgMgr *config.Manager, logger *slog.Logger) (*svcctx.Services, error) {
	library, err := loadLibrary(h, logger)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	guard := embedding.NewGuard(embedding.GuardConfig{
		CallsPerHour: cfg.Embedding.CallsPerHour,
		Cooldown:     time.Duration(cfg.Embedding.CooldownMinutes) * time.Minute,
		MaxErrors:    cfg.Embedding.MaxErrors,
		Logger:       logger,
	})
	cache := embedding.NewCache(h.EmbeddingCachePath(), logger)

	generator := exercise.NewGenerator(exercise.GeneratorConfig{
		Provider:       provider,
		Guard:          guard,
		Cache:          cache,
		Library:        library,
		Fallbacks:      exercise.DefaultFallbacks(),
		Logger:         logger,
		InitRetries:    uint(cfg.Embedding.InitRetries),
		CorpusRetries:  uint(cfg.Embedding.CorpusRetries),
		RetryBaseDelay: time.Duration(cfg.Embedding.RetryBaseDelay) * time.Second,
		BatchSize:      cfg.Embedding.BatchSize,
	})

	st := store.New(h, logger)

	authenticator, err := auth.New(auth.Config{
		Store:    st,
		Secret:   config.ResolveEnvVars(cfg.Auth.JWTSecret),
		TokenTTL: time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	password := config.ResolveEnvVars(cfg.Auth.Password)
	if err := authenticator.EnsureUser(cfg.Auth.Username, password); err != nil {
		return nil, fmt.Errorf("ensuring user %q: %w", cfg.Auth.Username, err)
	}

	return &svcctx.Services{
		Generator:     generator,
		Store:         st,
		Authenticator: authenticator,
		ConfigManager: cfgMgr,
		Logger:        logger,
		Home:          h,
	}, nil
}

// loadLibrary reads the template library from the home directory,
// falling back to the built-in starter set when none exists yet.
func loadLibrary(h *home.Dir, logger *slog.Logger) (*exercise.Library, error) {
	if !h.TemplatesExist() {
		logger.Warn("no template library found, using built-in starter templates",
			"path", h.TemplatesPath(),
			"hint", "run 'pylearn init' to write the starter set to disk")
		return exercise.NewLibrary(exercise.DefaultTemplates()), nil
	}
	library, err := exercise.LoadLibrary(h.TemplatesPath())
	if err != nil {
		return nil, fmt.Errorf("loading template library: %w", err)
	}
	logger.Info("loaded template library",
		"path", h.TemplatesPath(),
		"templates", library.Len())
	return library, nil
}

// buildProvider selects the embedding backend from config.
func buildProvider(cfg *config.Config) (embedding.Provider, error) {
	switch cfg.Embedding.Provider {
	case embedding.OpenAIName, "":
		return embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey: config.ResolveEnvVars(cfg.Embedding.APIKey),
			Model:  cfg.Embedding.Model,
		}), nil
	case "mock":
		return embedding.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: from config)")

	rootCmd.AddCommand(serveCmd)
}
