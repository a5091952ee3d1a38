package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a catalog from version-1 to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order against any catalog whose user_version is below
// their version. Catalogs created before versioning report version 0.
var migrations = []migration{
	{
		version: 1,
		name:    "index statements by name",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_statements_name ON statements(name, seq)`,
	},
}

func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].version
}

// Store is the statement catalog: a SQLite file of built statements keyed
// by fingerprint. One connection is held open; SQLite serializes writers.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the catalog at path, creating and upgrading it as needed.
func Open(path string) (*Store, error) {
	return OpenContext(context.Background(), path)
}

// OpenContext is Open with a context bounding the connect and upgrade steps.
func OpenContext(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", catalogDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	return s, nil
}

// catalogDSN carries the connection pragmas as go-sqlite3 DSN parameters
// so every pooled connection gets them, not just the first.
func catalogDSN(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	return path + "?" + q.Encode()
}

func (s *Store) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return s.upgrade(ctx)
}

// upgrade applies each pending migration in its own transaction, bumping
// user_version alongside the change.
func (s *Store) upgrade(ctx context.Context) error {
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// Version reports the catalog's schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// Path is the file the catalog was opened from.
func (s *Store) Path() string { return s.path }

// Close releases the connection. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
