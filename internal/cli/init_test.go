package cli

import (
	"os"
	"path/filepath"
	"testing"

	"paytrack/internal/config"
	"paytrack/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PAYTRACK_CLI_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAYTRACK_CLI_TEST", "")
	os.Unsetenv("PAYTRACK_CLI_TEST")

	LoadEnvFile(path)

	if got := os.Getenv("PAYTRACK_CLI_TEST"); got != "from-file" {
		t.Errorf("PAYTRACK_CLI_TEST = %q, want from-file", got)
	}
}

func TestLoadEnvFile_MissingFileIgnored(t *testing.T) {
	LoadEnvFile(filepath.Join(t.TempDir(), "nope.env"))
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentWorker)
	if logger.Component() != log.ComponentWorker {
		t.Errorf("Component() = %q, want %q", logger.Component(), log.ComponentWorker)
	}

	logger = SetupLogger(nil, "")
	if logger.Component() != log.ComponentApp {
		t.Errorf("Component() = %q, want default %q", logger.Component(), log.ComponentApp)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "bogus")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatal("expected validation error")
	}

	t.Setenv("DATA_BACKEND", "memory")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("LoadAndValidateConfig() error = %v", err)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}
}
