// Package riskdb persists risk studies: the fixed scenario, the swept
// field, and the resulting probability series, so that charts and reports
// can be regenerated without re-running the engine.
package riskdb

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

	"github.com/oceanic-safety/cdp.report/internal/monitoring"
	"github.com/oceanic-safety/cdp.report/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the study database handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the study database at path and runs
// any pending schema migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening study database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	monitoring.Logf("study database ready at %s", path)
	return &DB{db}, nil
}

// migrateUp applies all pending migrations from the embedded sources.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	// Not closing m: it would close the underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// isSQLiteBusy reports whether err is a transient SQLITE_BUSY/locked
// condition worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs op, retrying briefly while SQLite reports the database
// busy. Other errors return immediately.
func retryOnBusy(clock timeutil.Clock, op func() error) error {
	const attempts = 5
	delay := 10 * time.Millisecond

	var err error
	for i := 0; i < attempts; i++ {
		err = op()
		if !isSQLiteBusy(err) {
			return err
		}
		clock.Sleep(delay)
		delay *= 2
	}
	return err
}
