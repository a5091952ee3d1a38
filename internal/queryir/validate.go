package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult contains the lint analysis of a document.
//
// A portable document renders to equivalent SQL on every supported dialect
// and contains no constructs that are almost always mistakes. Non-portable
// documents still build; warnings inform the author.
type ValidationResult struct {
	// IsPortable is true when Warnings is empty.
	IsPortable bool

	// Warnings lists findings, each prefixed with the query name.
	Warnings []string
}

// standardAggregates are available under the same name on every dialect.
var standardAggregates = map[string]bool{
	"COUNT":          true,
	"COUNT_DISTINCT": true,
	"SUM":            true,
	"AVG":            true,
	"MIN":            true,
	"MAX":            true,
}

// Validate lints a parsed document.
//
// Rules:
//  1. Equality against NULL never matches; use is_null / is_not_null
//  2. Raw templates cannot be checked for portability
//  3. Aggregates outside COUNT/SUM/AVG/MIN/MAX are dialect-specific
//  4. LIKE case sensitivity differs between dialects
//  5. A query with every field hidden produces no SQL
//  6. Unbound conditions in a registered view built with_conditions fail
//  7. ORDER BY on a hidden field of a grouped query must be grouped too
//
// Validate is a pure function with no side effects.
func Validate(doc *Document) ValidationResult {
	v := &validator{warnings: []string{}}
	if doc == nil {
		v.addWarning("document", "nil document")
	} else {
		for i := range doc.Queries {
			v.validateQuery(&doc.Queries[i])
		}
	}
	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(where, format string, args ...any) {
	v.warnings = append(v.warnings, where+": "+fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q *Query) {
	visible := 0
	grouped := false
	for i := range q.Select {
		f := &q.Select[i]
		if !f.Hidden {
			visible++
		}
		if f.GroupBy || f.Aggregate != "" {
			grouped = true
		}
	}
	if visible == 0 {
		v.addWarning(q.Name, "every field is hidden - the query selects nothing")
	}

	for i := range q.Select {
		f := &q.Select[i]
		if f.Aggregate != "" && !standardAggregates[strings.ToUpper(f.Aggregate)] {
			v.addWarning(q.Name, "aggregate %q on %s is dialect-specific", f.Aggregate, f.Attr)
		}
		if grouped && f.Hidden && f.OrderBy && !f.GroupBy && f.Aggregate == "" {
			v.addWarning(q.Name, "%s orders a grouped query but is not grouped", f.Attr)
		}
		if f.Where != nil {
			v.validateWhere(q, f)
		}
	}
}

func (v *validator) validateWhere(q *Query, f *Field) {
	w := f.Where
	if w.Template != "" {
		v.addWarning(q.Name, "raw template on %s - portability cannot be verified", f.Attr)
	}
	if w.Op == OpLike {
		v.addWarning(q.Name, "like on %s is case-sensitive on some dialects only", f.Attr)
	}
	if w.Op == OpEq || w.Op == OpNotEq {
		for _, raw := range w.Values {
			if raw == nil {
				v.addWarning(q.Name, "%s compared to NULL with %s - use is_null or is_not_null", f.Attr, w.Op)
			}
		}
	}
	if q.Register != nil && q.Register.WithConditions && unbound(w) {
		v.addWarning(q.Name, "%s has no values but the view keeps its conditions", f.Attr)
	}
}

func unbound(w *Where) bool {
	if len(w.Values) > 0 {
		return false
	}
	if w.Template != "" {
		return strings.Contains(w.Template, "?")
	}
	return opSlots[w.Op] != 0
}

