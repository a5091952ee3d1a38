package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/schema"
)

// CheckError reports SQL that SQLite refused to prepare.
type CheckError struct {
	SQL string
	Err error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("statement does not prepare: %v", e.Err)
}

// Unwrap returns the driver error.
func (e *CheckError) Unwrap() error { return e.Err }

// Check prepares sqlText against scratch tables built from s.
//
// Each table-sourced view contributes one table named after its source with
// one untyped column per declared attribute; views sharing a source share
// the table. Nested query views need no table of their own.
func Check(ctx context.Context, s *schema.Schema, sqlText string) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("open scratch database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	for _, ddl := range scratchTables(s) {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create scratch table: %w", err)
		}
	}

	stmt, err := db.PrepareContext(ctx, sqlText)
	if err != nil {
		slog.Debug("statement check failed", "error", err)
		return &CheckError{SQL: sqlText, Err: err}
	}
	return stmt.Close()
}

// scratchTables returns CREATE TABLE statements in view registration order.
func scratchTables(s *schema.Schema) []string {
	var order []string
	columns := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, v := range s.Views() {
		if !v.IsTable() {
			continue
		}
		src := v.Source()
		if _, ok := columns[src]; !ok {
			order = append(order, src)
			columns[src] = nil
			seen[src] = make(map[string]bool)
		}
		for _, a := range v.AttributeNames() {
			if !seen[src][a] {
				seen[src][a] = true
				columns[src] = append(columns[src], a)
			}
		}
	}

	ddl := make([]string, 0, len(order))
	for _, src := range order {
		ddl = append(ddl, fmt.Sprintf("CREATE TABLE %s (%s)", tableName(src), strings.Join(columns[src], ", ")))
	}
	return ddl
}

// tableName quotes sources that are not plain identifiers. Schema-qualified
// sources ("public.books") therefore do not resolve and fail the check.
func tableName(src string) string {
	if ir.ValidateIdentifier(src) == nil {
		return src
	}
	return `"` + strings.ReplaceAll(src, `"`, `""`) + `"`
}
