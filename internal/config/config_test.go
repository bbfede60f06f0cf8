package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Embedding.CallsPerHour != 50 {
		t.Errorf("CallsPerHour = %d, want 50", cfg.Embedding.CallsPerHour)
	}
	if cfg.Embedding.CooldownMinutes != 60 {
		t.Errorf("CooldownMinutes = %d, want 60", cfg.Embedding.CooldownMinutes)
	}
	if cfg.Embedding.MaxErrors != 3 {
		t.Errorf("MaxErrors = %d, want 3", cfg.Embedding.MaxErrors)
	}
	if cfg.Embedding.BatchSize != 32 {
		t.Errorf("BatchSize = %d, want 32", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.InitRetries != 3 || cfg.Embedding.CorpusRetries != 2 {
		t.Errorf("retry counts = (%d, %d), want (3, 2)",
			cfg.Embedding.InitRetries, cfg.Embedding.CorpusRetries)
	}
	if cfg.Limits.RequestsPerMinute != 60 {
		t.Errorf("RequestsPerMinute = %d, want 60", cfg.Limits.RequestsPerMinute)
	}
	if cfg.Auth.Username == "" {
		t.Error("Auth.Username is empty")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("expands variables", func(t *testing.T) {
		t.Setenv("PYLEARN_TEST_KEY", "secret-value")
		got := ResolveEnvVars("${PYLEARN_TEST_KEY}")
		if got != "secret-value" {
			t.Errorf("ResolveEnvVars() = %q, want secret-value", got)
		}
	})

	t.Run("missing variable resolves empty", func(t *testing.T) {
		got := ResolveEnvVars("${PYLEARN_DOES_NOT_EXIST_XYZ}")
		if got != "" {
			t.Errorf("ResolveEnvVars() = %q, want empty", got)
		}
	})

	t.Run("plain string untouched", func(t *testing.T) {
		got := ResolveEnvVars("plain-value")
		if got != "plain-value" {
			t.Errorf("ResolveEnvVars() = %q, want plain-value", got)
		}
	})

	t.Run("empty string", func(t *testing.T) {
		if got := ResolveEnvVars(""); got != "" {
			t.Errorf("ResolveEnvVars(\"\") = %q, want empty", got)
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("written config is empty")
	}

	content := string(data)
	for _, want := range []string{"embedding", "calls_per_hour", "jwt_secret"} {
		if !strings.Contains(content, want) {
			t.Errorf("written config missing %q", want)
		}
	}
}
