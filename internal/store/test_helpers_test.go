package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/querysql"
	"github.com/roach88/joinery/internal/testutil"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// titlesSince builds "titles published from year on" with year bound, or
// unbound when year is nil.
func titlesSince(t *testing.T, year ir.Value) *querysql.Statement {
	t.Helper()
	lib := testutil.NewLibrary(t)
	b := querysql.NewBuilder(lib.Schema)

	cond := querysql.Gte()
	if year != nil {
		cond = querysql.Gte(year)
	}
	require.NoError(t, b.Select(
		querysql.MustSelect(lib.Attr(t, "Books.title"), querysql.SelectOptions{}),
		querysql.MustSelect(lib.Attr(t, "Publishers.name"), querysql.SelectOptions{}),
		querysql.MustSelect(lib.Attr(t, "Books.year"), querysql.SelectOptions{Hidden: true, Condition: cond}),
	))
	st, err := b.Prepare()
	require.NoError(t, err)
	return st
}

// pragma reads a connection pragma as text.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	require.NoError(t, s.db.QueryRow("PRAGMA "+name).Scan(&value))
	return value
}
