package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvFile loads environment variables from a .env file if one exists.
// ENV_FILE overrides the location; otherwise the executable's directory is
// tried first, then the working directory. Variables already set in the
// environment are not overwritten.
func LoadEnvFile() {
	envFile := GetEnvOrDefault("ENV_FILE", "")

	if envFile == "" {
		if execPath, err := os.Executable(); err == nil {
			envFile = filepath.Join(filepath.Dir(execPath), ".env")
		}
		if _, err := os.Stat(envFile); envFile == "" || os.IsNotExist(err) {
			cwd, err := os.Getwd()
			if err != nil {
				slog.Error("Failed to get current working directory", "error", err)
				return
			}
			envFile = filepath.Join(cwd, ".env")
		}
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found", "path", envFile)
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "error", err, "path", envFile)
		return
	}

	slog.Info("Configuration loaded from .env file", "path", envFile)
}
