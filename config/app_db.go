package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wayfarermaps/landing/internal/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string
}

// withDefaults fills unset fields. SSLMode defaults to "require"; local
// setups override it with POSTGRES_SSLMODE=disable.
func (cfg *DBConfig) withDefaults() *DBConfig {
	out := DBConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Minute,
		SSLMode:         "require",
	}
	if cfg == nil {
		return &out
	}

	if cfg.MaxIdleConns > 0 {
		out.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		out.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		out.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.SSLMode != "" {
		out.SSLMode = cfg.SSLMode
	}
	return &out
}

// IsDatabaseConfigured reports whether any database connection settings are
// present. Without them the waitlist falls back to its in-memory store.
func IsDatabaseConfigured() bool {
	if sanitizeEnv(os.Getenv("APP_DATABASE_URL")) != "" {
		return true
	}
	return sanitizeEnv(os.Getenv("POSTGRES_HOST")) != ""
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	cfg = cfg.withDefaults()

	dsn, err := resolveDSN(logger, cfg)
	if err != nil {
		return nil, err
	}

	// TranslateError maps driver errors onto gorm.ErrDuplicatedKey and
	// friends, which the waitlist repository matches on.
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

// resolveDSN prefers a full APP_DATABASE_URL and otherwise assembles the DSN
// from the discrete POSTGRES_* variables.
func resolveDSN(logger *log.Logger, cfg *DBConfig) (string, error) {
	if url := sanitizeEnv(os.Getenv("APP_DATABASE_URL")); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return url, nil
	}

	params := readPostgresParams()
	if params.SSLMode == "" {
		params.SSLMode = cfg.SSLMode
	}

	if missing := params.missing(); len(missing) > 0 {
		logger.Error("Missing required database environment variables", "missing_vars", strings.Join(missing, ", "))
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(params.Port)
	if err != nil {
		logger.Error("Invalid POSTGRES_PORT", "error", err)
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", params.Port, err)
	}

	logger.Info("Connecting to database",
		"host", params.Host,
		"port", port,
		"user", params.User,
		"dbname", params.Name,
		"sslmode", params.SSLMode,
	)

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		params.Host, port, params.User, params.Password, params.Name, params.SSLMode,
	), nil
}

type postgresParams struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func readPostgresParams() postgresParams {
	return postgresParams{
		Host:     sanitizeEnv(os.Getenv("POSTGRES_HOST")),
		Port:     sanitizeEnv(os.Getenv("POSTGRES_PORT")),
		User:     sanitizeEnv(os.Getenv("POSTGRES_USER")),
		Password: sanitizeEnv(os.Getenv("POSTGRES_PASSWORD")),
		Name:     sanitizeEnv(os.Getenv("POSTGRES_DB_NAME")),
		SSLMode:  sanitizeEnv(os.Getenv("POSTGRES_SSLMODE")),
	}
}

func (p postgresParams) missing() []string {
	var missing []string

	if p.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if p.Port == "" {
		missing = append(missing, "POSTGRES_PORT")
	}
	if p.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if p.Name == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}

	return missing
}

// sanitizeEnv trims whitespace and strips one layer of matching quotes, which
// show up when values are copied from .env files verbatim.
func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Auto-migrate requested without a database connection")
		return fmt.Errorf("auto-migrate: no database connection")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}

	logger.Info("Database closed successfully")
}
