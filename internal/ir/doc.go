// Package ir provides the literal value types shared by the query builder,
// the declarative query documents and the statement catalog.
//
// This package contains value definitions only. All other internal packages
// may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types (use Int or a String literal) so rendered SQL and
//     fingerprints are byte-for-byte reproducible
//   - Identifiers and strings are NFC normalized at the boundary
//   - Canonical JSON (RFC 8785 key order) is the only encoding used for
//     fingerprints
package ir
