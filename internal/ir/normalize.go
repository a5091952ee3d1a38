package ir

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentifier returns the NFC form of a view or attribute name with
// surrounding whitespace removed. Two spellings of the same name that differ
// only in Unicode composition compare equal after normalization.
func NormalizeIdentifier(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateIdentifier checks that name is usable as an attribute or output
// column name: non-empty, starting with a letter or underscore, containing
// only letters, digits and underscores.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	for i, r := range name {
		switch {
		case r == '_', unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return fmt.Errorf("identifier %q contains invalid character %q", name, r)
		}
	}
	return nil
}

// SplitQualified splits a "View.attr" reference into its two parts.
func SplitQualified(ref string) (view, attr string, err error) {
	ref = NormalizeIdentifier(ref)
	idx := strings.LastIndex(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("reference %q must have the form View.attribute", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}
