package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store is the marketplace's persistence layer. It holds every account store
// (buyers, sellers, admins) plus products, orders, conversations, settings,
// and the activity log. Two engines are supported: embedded SQLite (the
// default, also used in-memory by tests) and PostgreSQL via pgx.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the backing database and runs migrations.
//
// For driver "sqlite", dsn is a data directory ("" selects an in-memory
// database). For driver "postgres", dsn is a standard postgres connection
// string.
func Open(driver, dsn string) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch driver {
	case "sqlite":
		connStr := ":memory:?_journal_mode=WAL"
		if dsn != "" {
			if err := os.MkdirAll(dsn, 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			connStr = filepath.Join(dsn, "ecoloop.db") + "?_journal_mode=WAL&_busy_timeout=5000"
		}
		db, err = sqlx.Connect("sqlite", connStr)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}

	case "postgres":
		db, err = sqlx.Connect("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)

	default:
		return nil, fmt.Errorf("unsupported store driver %q (want sqlite or postgres)", driver)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the active driver name ("sqlite" or "postgres").
func (s *Store) Driver() string {
	return s.driver
}

// rebind converts ? placeholders to the driver's bindvar style. Queries are
// written with ? throughout; pgx needs $1, $2, ...
func (s *Store) rebind(q string) string {
	return s.db.Rebind(q)
}
