package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/wayfarermaps/landing/internal/log"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// autoMigrateEnvs are the APP_ENV values where schema auto-migration may run.
// An empty value counts as development.
var autoMigrateEnvs = map[string]bool{
	"":            true,
	"dev":         true,
	"development": true,
	"local":       true,
	"test":        true,
	"testing":     true,
}

func InitializeEnvFile(logger *log.Logger) {
	logger.Info("Initializing environment variables from .env file if present")

	// SKIP_DOTENV opts out explicitly instead of guessing from binary names.
	if os.Getenv("SKIP_DOTENV") == "true" {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found or failed to load it", "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from .env file successfully")
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	if autoMigrateEnvs[env] {
		return nil
	}

	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
}
