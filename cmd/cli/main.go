package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wayfarermaps/landing/config"
	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/migrations"
	"github.com/wayfarermaps/landing/pkg/utils"
)

const migrateTimeout = 5 * time.Minute

func main() {
	logger := log.NewLoggerWithTextOutput()

	// Load envs before any command so the CLI sees the same configuration as
	// the server.
	config.InitializeEnvFile(logger)

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := runMigrate(logger); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Database migrations completed")

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runMigrate(logger *log.Logger) error {
	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql db: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	return migrations.Up(ctx, sqlDB, migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Logger: logger,
	})
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate  Run database migrations and exit")
}
