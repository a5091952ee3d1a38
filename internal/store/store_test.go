package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	// Reopening an existing catalog must not recreate or re-migrate it.
	for round := range 3 {
		s, err := Open(path)
		require.NoError(t, err, "round %d", round)

		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM statements").Scan(&count))
		assert.Zero(t, count)
		require.NoError(t, s.Close())

		_, err = os.Stat(path)
		assert.NoError(t, err, "catalog file missing after round %d", round)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	tests := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, pragma(t, s, name))
		})
	}
}

func TestOpen_RecordsLatestVersion(t *testing.T) {
	s := createTestStore(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, latestVersion(), v)
	assert.Equal(t, 1, v)
}

func TestOpenContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := OpenContext(ctx, filepath.Join(t.TempDir(), "test.db"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
}

func TestOpen_MigratesVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_statements_name'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_statements_name", name)

	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}
