package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/strikeplanner/internal/monitoring"
	"github.com/banshee-data/strikeplanner/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// connPragmas are applied to every pooled connection through the DSN.
var connPragmas = []string{
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(ON)",
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
}

func dsn(path string) string {
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	for i, p := range connPragmas {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// Open opens the database at path, applies the connection PRAGMAs and runs
// all pending migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ErrDirtySchema is returned when an earlier migration stopped half way. The
// strike_decisions schema must be repaired by hand before it is used again.
var ErrDirtySchema = errors.New("decision schema is dirty")

// MigrateUp applies every embedded strike_decisions migration the database
// has not seen yet. An up-to-date database is left untouched.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// m is not closed: closing it closes db too.
	if _, dirty, err := m.Version(); err == nil && dirty {
		return ErrDirtySchema
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply decision migrations: %w", err)
	}
	return nil
}

// MigrateDown reverts the newest applied decision migration. Reverting
// 000001 drops strike_decisions along with every recorded decision.
func MigrateDown(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("revert decision migration: %w", err)
	}
	return nil
}

// MigrateVersion reports which embedded migration the database is at. A
// database that has never been migrated is at version 0.
func MigrateVersion(db *sql.DB) (version uint, dirty bool, err error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrate reads the migrations compiled into the binary, so the store
// never depends on the working directory.
func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read embedded decision migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("decision migrator: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// migrateLogger routes golang-migrate output through monitoring.Logf.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[decisions migrate] "+strings.TrimRight(format, "\n"), v...)
}

func (migrateLogger) Verbose() bool { return false }

const (
	busyRetries = 5
	busyBackoff = 20 * time.Millisecond
)

// retryOnBusy runs fn, retrying with linear backoff while SQLite reports the
// database as locked.
func retryOnBusy(clock timeutil.Clock, fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		clock.Sleep(time.Duration(attempt+1) * busyBackoff)
	}
	return fmt.Errorf("database busy after %d attempts: %w", busyRetries, err)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
