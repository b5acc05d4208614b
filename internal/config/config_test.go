package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Oracle.Provider != "landingai" {
		t.Errorf("expected landingai provider, got %s", cfg.Oracle.Provider)
	}
	if cfg.Oracle.APIKey != "${LANDINGAI_API_KEY}" {
		t.Error("expected API key placeholder")
	}
	if cfg.Processing.MaxConcurrent != 10 {
		t.Errorf("expected max concurrent 10, got %d", cfg.Processing.MaxConcurrent)
	}
	if cfg.Processing.TimeoutSeconds != 300 {
		t.Errorf("expected timeout 300s, got %d", cfg.Processing.TimeoutSeconds)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestToOracleConfig(t *testing.T) {
	os.Setenv("TEST_ORACLE_KEY", "oracle-key-123")
	defer os.Unsetenv("TEST_ORACLE_KEY")

	cfg := &Config{
		Oracle: OracleConfig{
			Provider:       "landingai",
			APIKey:         "${TEST_ORACLE_KEY}",
			RateLimit:      2.0,
			TimeoutSeconds: 120,
			MaxRetries:     3,
		},
	}

	oc := cfg.ToOracleConfig()
	if oc.APIKey != "oracle-key-123" {
		t.Errorf("expected resolved key, got %s", oc.APIKey)
	}
	if oc.Timeout != 120*time.Second {
		t.Errorf("expected 120s timeout, got %s", oc.Timeout)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
server:
  port: 9090
processing:
  default_mode: fast
`
		if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cm, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("new manager: %v", err)
		}

		cfg := cm.Get()
		if cfg.Server.Port != 9090 {
			t.Errorf("expected port 9090 from file, got %d", cfg.Server.Port)
		}
		if cfg.Processing.DefaultMode != "fast" {
			t.Errorf("expected mode fast from file, got %s", cfg.Processing.DefaultMode)
		}
		// Untouched sections fall back to defaults.
		if cfg.Oracle.Provider != "landingai" {
			t.Errorf("expected default provider, got %s", cfg.Oracle.Provider)
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty config file")
	}
}
