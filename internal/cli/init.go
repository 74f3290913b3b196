// Package cli holds the initialization shared by cmd/paytrack and
// cmd/paytrack-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"paytrack/internal/config"
	"paytrack/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is fine; real environments set variables directly.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// SetupLogger builds the process logger from cfg and makes it the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	return SetupLoggerTo(cfg, component, os.Stdout)
}

// SetupLoggerTo is SetupLogger writing to w. One-shot commands log to
// stderr so stdout carries only their output.
func SetupLoggerTo(cfg *config.Config, component string, w io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	lc.Output = w
	if cfg != nil {
		lc.Level = log.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap runs LoadEnvFile, LoadAndValidateConfig and SetupLogger in order.
func Bootstrap(component string) (*config.Config, *log.Logger, error) {
	return BootstrapTo(component, os.Stdout)
}

// BootstrapTo is Bootstrap with logs written to w.
func BootstrapTo(component string, w io.Writer) (*config.Config, *log.Logger, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		// Still log through the configured format so failures are parseable
		SetupLoggerTo(nil, component, w).Error("Configuration validation failed", log.FieldError, err)
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, SetupLoggerTo(cfg, component, w), nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
