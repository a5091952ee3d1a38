package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/joinery/internal/schema"
	"github.com/roach88/joinery/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Statement under test
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nSQL:\n  %s\n", e.SQL)
	return buf.String()
}

func assertSQLContains(sql string, a Assertion) error {
	if strings.Contains(sql, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSQLContains,
		Expected: fmt.Sprintf("SQL containing %q", a.Text),
		Actual:   "not found",
		SQL:      sql,
	}
}

// assertSQLOrder checks the texts appear in order. Each text is searched for
// after the end of the previous match.
func assertSQLOrder(sql string, a Assertion) error {
	offset := 0
	for i, text := range a.Texts {
		idx := strings.Index(sql[offset:], text)
		if idx < 0 {
			actual := fmt.Sprintf("%q not found", text)
			if i > 0 {
				actual = fmt.Sprintf("%q not found after %q", text, a.Texts[i-1])
			}
			return &AssertionError{
				Type:     AssertSQLOrder,
				Expected: fmt.Sprintf("texts in order: %q", a.Texts),
				Actual:   actual,
				SQL:      sql,
			}
		}
		offset += idx + len(text)
	}
	return nil
}

func assertSQLCount(sql string, a Assertion) error {
	if n := strings.Count(sql, a.Text); n != a.Count {
		return &AssertionError{
			Type:     AssertSQLCount,
			Expected: fmt.Sprintf("%d occurrences of %q", a.Count, a.Text),
			Actual:   fmt.Sprintf("%d occurrences", n),
			SQL:      sql,
		}
	}
	return nil
}

// assertParams checks placeholder owners with subset semantics; extra
// placeholders in the statement are allowed.
func assertParams(result *Result, a Assertion) error {
	names := make([]string, 0, len(a.Params))
	for name := range a.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want := a.Params[name]
		got, ok := result.Params[name]
		if !ok {
			return &AssertionError{
				Type:     AssertParams,
				Expected: fmt.Sprintf("placeholder %s filtering %s", name, want),
				Actual:   fmt.Sprintf("no placeholder %s (have %d)", name, len(result.Params)),
				SQL:      result.SQL,
			}
		}
		if got != want {
			return &AssertionError{
				Type:     AssertParams,
				Expected: fmt.Sprintf("placeholder %s filtering %s", name, want),
				Actual:   fmt.Sprintf("placeholder %s filters %s", name, got),
				SQL:      result.SQL,
			}
		}
	}
	return nil
}

func assertPrepares(ctx context.Context, s *schema.Schema, sql string) error {
	if err := store.Check(ctx, s, sql); err != nil {
		return &AssertionError{
			Type:     AssertPrepares,
			Expected: "statement prepares against the schema's tables",
			Actual:   err.Error(),
			SQL:      sql,
		}
	}
	return nil
}

// AssertionContext provides the schema the scenario was built against.
type AssertionContext struct {
	Schema *schema.Schema
	Ctx    context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSQLContains:
			err = assertSQLContains(result.SQL, assertion)
		case AssertSQLOrder:
			err = assertSQLOrder(result.SQL, assertion)
		case AssertSQLCount:
			err = assertSQLCount(result.SQL, assertion)
		case AssertParams:
			err = assertParams(result, assertion)
		case AssertPrepares:
			if actx == nil || actx.Schema == nil {
				err = fmt.Errorf("assertion[%d]: prepares requires a schema", i)
			} else {
				err = assertPrepares(actx.Ctx, actx.Schema, result.SQL)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
