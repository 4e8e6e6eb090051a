// Package cli provides common initialization shared by cmd/moneybook and
// cmd/moneybook-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"moneybook/internal/config"
	"moneybook/internal/log"
)

// SetupLogger builds the process logger and installs it as the default.
func SetupLogger(component string) *log.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := log.New(component, handler)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. Missing files are fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, exiting on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}
