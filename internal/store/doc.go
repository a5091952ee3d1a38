// Package store provides the SQLite-backed statement catalog.
//
// Every statement built through the CLI can be recorded with Save. Records
// are content-addressed: the fingerprint (SQL text plus bound arguments)
// is unique, so saving the same statement twice returns the first record.
//
// # Ordering
//
// Records carry a logical sequence number assigned at insert. All listing
// queries use ORDER BY seq ASC, id COLLATE BINARY ASC so history output is
// identical across runs.
//
// # Checking
//
// Check prepares generated SQL against an in-memory SQLite database holding
// one empty scratch table per table-sourced view. It catches references to
// columns a view does not declare and malformed clause text without
// touching a real database.
//
// # Catalog File
//
// Open passes journal_mode=WAL, synchronous=NORMAL and busy_timeout=5000 as
// driver DSN parameters, then applies pending migrations. The catalog's
// schema version lives in PRAGMA user_version.
package store
