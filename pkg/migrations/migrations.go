package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Logger is the slog-shaped subset used while applying migrations.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Config locates the migration files and the bookkeeping table. Zero values
// mean "migrations" and "schema_migrations".
type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = "migrations"
	}
	if strings.TrimSpace(c.MigrationsTable) == "" {
		c.MigrationsTable = "schema_migrations"
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return c
}

type migrator interface {
	Up() error
	Close() (sourceErr error, databaseErr error)
}

// Factory seams so tests can exercise Up without a live Postgres.
var (
	newDriver = func(db *sql.DB, table string) (database.Driver, error) {
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	}
	newMigrator = func(sourceURL string, driver database.Driver) (migrator, error) {
		return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	}
)

// buildSourceURL turns a migrations directory into the file:// URL the source
// driver expects, with escaping for spaces and normalized separators.
func buildSourceURL(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}

	u := &url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absDir),
	}
	return u.String(), nil
}

// Up applies every pending migration in cfg.Dir. Cancelling ctx abandons the
// wait and closes the migrator; the statement already running on the database
// cannot be interrupted because migrate does not take a context.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg = cfg.withDefaults()

	sourceURL, err := buildSourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := newDriver(db, cfg.MigrationsTable)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := newMigrator(sourceURL, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() {
		closeOnce.Do(func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				cfg.Logger.Warn("Migrator close reported errors", "source_error", srcErr, "database_error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.Logger.Info("Running SQL migrations", "source", sourceURL, "table", cfg.MigrationsTable)

	done := make(chan error, 1)
	go func() { done <- m.Up() }()

	select {
	case <-ctx.Done():
		closeMigrator()
		return ctx.Err()
	case err := <-done:
		if errors.Is(err, migrate.ErrNoChange) {
			cfg.Logger.Info("No migrations to apply")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: up: %w", err)
		}
	}

	cfg.Logger.Info("Migrations applied successfully")
	return nil
}
