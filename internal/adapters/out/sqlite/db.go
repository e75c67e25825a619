// Package sqlite implements the persistence ports on top of SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/bnema/dockyard/internal/boundaries/out"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// busyTimeout is how long a writer waits on a locked database before failing.
const busyTimeout = 5 * time.Second

// Ensure Store implements the persistence ports.
var (
	_ out.RegistryStore   = (*Store)(nil)
	_ out.NamespaceStore  = (*Store)(nil)
	_ out.RepositoryStore = (*Store)(nil)
	_ out.TagStore        = (*Store)(nil)
	_ out.UserStore       = (*Store)(nil)
	_ out.ActivityStore   = (*Store)(nil)
	_ out.StarStore       = (*Store)(nil)
)

// Store is the SQLite-backed implementation of every persistence port.
type Store struct {
	db    *sql.DB
	log   zerowrap.Logger
	nowFn func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, log zerowrap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().
		Str(zerowrap.FieldLayer, "adapter").
		Str(zerowrap.FieldAdapter, "sqlite").
		Str(zerowrap.FieldPath, path).
		Msg("database ready")

	return &Store{
		db:  db,
		log: log,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// migrateUp applies every embedded migration that has not run yet.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// now returns t when set, the store clock otherwise.
func (s *Store) now(t time.Time) time.Time {
	if t.IsZero() {
		return s.nowFn()
	}
	return t.UTC()
}

// withTx runs fn inside a transaction, rolling back when fn fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
