package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/querysql"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("statement not found")

// Record is one catalogued statement.
type Record struct {
	ID          string
	Seq         int64
	Name        string
	Dialect     string
	SQL         string
	Fingerprint string
	ToolVersion string

	// Names lists placeholders in statement order.
	Names []string
	// Args holds one value per placeholder; nil for unbound slots.
	Args []ir.Value
	// Unbound lists placeholders saved without a value.
	Unbound []string
	// Params maps each placeholder to the "View.attr" it filters.
	Params map[string]string
}

// Save records a statement under name. Saving a statement whose fingerprint
// is already catalogued returns the existing record and created=false.
func (s *Store) Save(ctx context.Context, name string, st *querysql.Statement) (*Record, bool, error) {
	fp, err := st.Fingerprint()
	if err != nil {
		return nil, false, fmt.Errorf("fingerprint: %w", err)
	}
	args, err := marshalArgs(st.Args)
	if err != nil {
		return nil, false, err
	}
	unbound, err := marshalNames(st.Unbound())
	if err != nil {
		return nil, false, err
	}
	params, err := marshalParams(st.Params)
	if err != nil {
		return nil, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM statements`).Scan(&seq); err != nil {
		return nil, false, fmt.Errorf("next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO statements (id, seq, name, dialect, sql, args, unbound, params, fingerprint, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, uuid.NewString(), seq, name, st.Dialect, st.SQL, args, unbound, params, fp, ir.ToolVersion)
	if err != nil {
		return nil, false, fmt.Errorf("insert statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	rec, err := s.GetByFingerprint(ctx, fp)
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		slog.Debug("statement already catalogued", "name", name, "id", rec.ID, "existing_name", rec.Name)
		return rec, false, nil
	}
	slog.Debug("statement catalogued", "name", name, "id", rec.ID, "seq", rec.Seq)
	return rec, true, nil
}

// listOrder is the history order. SQLite wants COLLATE before the direction.
var listOrder = []string{"seq ASC", "id COLLATE BINARY ASC"}

// selectRecords selects every column scanRecord reads.
var selectRecords = sq.Select(
	"id", "seq", "name", "dialect", "sql", "args", "unbound", "params", "fingerprint", "tool_version",
).From("statements")

// Get returns the record with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

// GetByFingerprint returns the record with the given fingerprint, or ErrNotFound.
func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (*Record, error) {
	return s.getOne(ctx, sq.Eq{"fingerprint": fingerprint})
}

func (s *Store) getOne(ctx context.Context, where sq.Eq) (*Record, error) {
	query, args, err := selectRecords.Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return scanRecord(s.db.QueryRowContext(ctx, query, args...))
}

// List returns every record, oldest first. With a non-empty name only that
// query's records are returned.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) List(ctx context.Context, name string) ([]Record, error) {
	q := selectRecords.OrderBy(listOrder...)
	if name != "" {
		q = q.Where(sq.Eq{"name": name})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return records, nil
}

// Delete removes a record. Deleting an unknown id returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM statements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec                   Record
		args, unbound, params string
	)
	err := row.Scan(&rec.ID, &rec.Seq, &rec.Name, &rec.Dialect, &rec.SQL,
		&args, &unbound, &params, &rec.Fingerprint, &rec.ToolVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan statement: %w", err)
	}

	if rec.Params, rec.Names, err = unmarshalParams(params); err != nil {
		return nil, err
	}
	if rec.Unbound, err = unmarshalNames(unbound); err != nil {
		return nil, err
	}
	if rec.Args, err = unmarshalArgs(args, rec.Names, rec.Unbound); err != nil {
		return nil, err
	}
	return &rec, nil
}
