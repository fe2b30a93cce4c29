package migrations

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
)

type recordingLogger struct {
	infos []string
	warns []string
}

func (l *recordingLogger) Info(msg string, _ ...any)  { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ ...any) {}

func (l *recordingLogger) sawInfo(msg string) bool {
	for _, m := range l.infos {
		if m == msg {
			return true
		}
	}
	return false
}

type stubMigrator struct {
	upErr    error
	closeSrc error
}

func (m *stubMigrator) Up() error             { return m.upErr }
func (m *stubMigrator) Close() (error, error) { return m.closeSrc, nil }

// blockingMigrator parks Up until Close is called, standing in for a
// migration that outlives the caller's patience.
type blockingMigrator struct {
	release   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func newBlockingMigrator() *blockingMigrator {
	return &blockingMigrator{release: make(chan struct{})}
}

func (m *blockingMigrator) Up() error {
	<-m.release
	return nil
}

func (m *blockingMigrator) Close() (error, error) {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.release)
	})
	return nil, nil
}

// stubSeams swaps the package factories for the duration of a test.
func stubSeams(t *testing.T, driver func(*sql.DB, string) (database.Driver, error), mig func(string, database.Driver) (migrator, error)) {
	t.Helper()

	origDriver, origMigrator := newDriver, newMigrator
	t.Cleanup(func() {
		newDriver, newMigrator = origDriver, origMigrator
	})

	if driver != nil {
		newDriver = driver
	}
	if mig != nil {
		newMigrator = mig
	}
}

func TestUp_NilDB(t *testing.T) {
	if err := Up(context.Background(), nil, Config{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUp_CanceledContextSkipsWork(t *testing.T) {
	called := atomic.Bool{}
	stubSeams(t,
		func(_ *sql.DB, _ string) (database.Driver, error) {
			called.Store(true)
			return nil, nil
		},
		func(_ string, _ database.Driver) (migrator, error) {
			called.Store(true)
			return &stubMigrator{}, nil
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called.Load() {
		t.Fatalf("expected no driver or migrator creation with a dead context")
	}
}

func TestUp_DeadlineClosesTheMigrator(t *testing.T) {
	block := newBlockingMigrator()
	stubSeams(t,
		func(_ *sql.DB, _ string) (database.Driver, error) { return nil, nil },
		func(_ string, _ database.Driver) (migrator, error) { return block, nil },
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if !block.closed.Load() {
		t.Fatalf("expected migrator.Close to be attempted on cancellation")
	}
}

func TestUp_NoChangeIsNotAnError(t *testing.T) {
	logger := &recordingLogger{}
	stubSeams(t,
		func(_ *sql.DB, _ string) (database.Driver, error) { return nil, nil },
		func(_ string, _ database.Driver) (migrator, error) {
			return &stubMigrator{upErr: migrate.ErrNoChange}, nil
		},
	)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !logger.sawInfo("No migrations to apply") {
		t.Fatalf("expected 'No migrations to apply' log, got %v", logger.infos)
	}
	if logger.sawInfo("Migrations applied successfully") {
		t.Fatalf("no-change runs should not claim success, got %v", logger.infos)
	}
}

func TestUp_LogsSuccess(t *testing.T) {
	logger := &recordingLogger{}
	stubSeams(t,
		func(_ *sql.DB, _ string) (database.Driver, error) { return nil, nil },
		func(_ string, _ database.Driver) (migrator, error) {
			return &stubMigrator{}, nil
		},
	)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !logger.sawInfo("Migrations applied successfully") {
		t.Fatalf("expected success log, got %v", logger.infos)
	}
}

func TestUp_WarnsWhenCloseFails(t *testing.T) {
	logger := &recordingLogger{}
	stubSeams(t,
		func(_ *sql.DB, _ string) (database.Driver, error) { return nil, nil },
		func(_ string, _ database.Driver) (migrator, error) {
			return &stubMigrator{closeSrc: errors.New("source busy")}, nil
		},
	)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger})
	if err != nil {
		t.Fatalf("close errors should not fail the run, got %v", err)
	}
	if len(logger.warns) == 0 {
		t.Fatalf("expected a warning about the failed close")
	}
}

func TestUp_DefaultsTableAndBuildsFileURL(t *testing.T) {
	tmp := t.TempDir()
	var gotSourceURL string

	stubSeams(t,
		func(_ *sql.DB, table string) (database.Driver, error) {
			if table != "schema_migrations" {
				t.Fatalf("expected the default migrations table, got %q", table)
			}
			return nil, nil
		},
		func(sourceURL string, _ database.Driver) (migrator, error) {
			gotSourceURL = sourceURL
			return &stubMigrator{upErr: migrate.ErrNoChange}, nil
		},
	)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: tmp})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	abs, _ := filepath.Abs(tmp)
	expected := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	if gotSourceURL != expected {
		t.Fatalf("expected sourceURL %q, got %q", expected, gotSourceURL)
	}
}

func TestUp_WrapsMigratorInitErrors(t *testing.T) {
	stubSeams(t,
		func(_ *sql.DB, _ string) (database.Driver, error) { return nil, nil },
		func(_ string, _ database.Driver) (migrator, error) {
			return nil, errors.New("boom")
		},
	)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "migrations: init") {
		t.Fatalf("expected wrapped init error, got %v", err)
	}
}

func TestBuildSourceURL_EscapesSpaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my migrations dir")

	sourceURL, err := buildSourceURL(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(sourceURL, "file://") {
		t.Fatalf("expected file:// scheme, got %q", sourceURL)
	}

	parsed, err := url.Parse(sourceURL)
	if err != nil {
		t.Fatalf("sourceURL is not a valid URL: %v", err)
	}

	abs, _ := filepath.Abs(dir)
	if parsed.Path != filepath.ToSlash(abs) {
		t.Fatalf("expected path %q, got %q", filepath.ToSlash(abs), parsed.Path)
	}
}
