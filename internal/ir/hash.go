package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainStatement prefixes statement fingerprints. The version suffix
// allows a future algorithm migration.
const DomainStatement = "joinery/statement/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementFingerprint computes the content-addressed identity of a built
// statement: its SQL text, the ordered argument slots and the names of
// slots still waiting for a value. Unbound slots are kept apart from slots
// bound to NULL. Two statements with the same text and the same bound values
// share a fingerprint regardless of when or where they were built.
func StatementFingerprint(sql string, args []Value, unbound []string) (string, error) {
	names := make(List, len(unbound))
	for i, n := range unbound {
		names[i] = String(n)
	}
	obj := Object{
		"sql":     String(sql),
		"args":    List(args),
		"unbound": names,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StatementFingerprint: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainStatement, canonical), nil
}
