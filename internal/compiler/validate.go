package compiler

import (
	"fmt"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/queryir"
	"github.com/roach88/joinery/internal/querysql"
	"github.com/roach88/joinery/internal/schema"
)

// Validation error codes (E120-E129)
const (
	ErrUnknownView        = "E120" // view name not in schema
	ErrUnknownAttribute   = "E121" // attribute not exposed by view
	ErrInvalidRegister    = "E122" // register pair does not relate the new view to an existing one
	ErrInvalidAggregate   = "E123" // aggregate function name is not an identifier
	ErrDuplicateView      = "E124" // registered view name already taken
	ErrAggregateGroupBy   = "E125" // visible fields not exactly group keys plus aggregates
	ErrEmptySelect        = "E126" // every field hidden
	ErrDuplicateOutput    = "E127" // registered view exposes one name twice
	ErrUnsupportedDialect = "E128" // document names an unknown dialect
)

// ValidationError represents a document validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateDocument checks doc against s without building anything and
// without modifying s. Returns all errors found (does not fail-fast).
//
// Views registered by earlier queries are tracked by their output names, so
// later queries that select from them validate too. Join reachability is
// not checked here; it depends on selection order and surfaces at build.
func ValidateDocument(s *schema.Schema, doc *queryir.Document) []ValidationError {
	var errs []ValidationError

	if doc.Dialect != "" {
		if _, err := querysql.DialectByName(doc.Dialect); err != nil {
			errs = append(errs, ValidationError{Field: "dialect", Message: err.Error(), Code: ErrUnsupportedDialect})
		}
	}

	known := make(map[string]map[string]bool)
	for _, v := range s.Views() {
		attrs := make(map[string]bool)
		for _, n := range v.AttributeNames() {
			attrs[n] = true
		}
		known[v.Name()] = attrs
	}

	for i := range doc.Queries {
		q := &doc.Queries[i]
		path := fmt.Sprintf("queries[%d]", i)
		errs = append(errs, validateFields(q, path, known)...)
		if q.Register != nil {
			errs = append(errs, validateRegister(q, path, known)...)
		}
	}
	return errs
}

func validateFields(q *queryir.Query, path string, known map[string]map[string]bool) []ValidationError {
	var errs []ValidationError

	grouping := false
	visible := 0
	for _, f := range q.Select {
		if f.GroupBy || f.Aggregate != "" {
			grouping = true
		}
		if !f.Hidden {
			visible++
		}
	}
	if visible == 0 {
		errs = append(errs, ValidationError{
			Field:   path + ".select",
			Message: "every field is hidden",
			Code:    ErrEmptySelect,
		})
	}

	for j, f := range q.Select {
		field := fmt.Sprintf("%s.select[%d]", path, j)

		viewName, attrName, err := ir.SplitQualified(f.Attr)
		if err != nil {
			errs = append(errs, ValidationError{Field: field + ".attr", Message: err.Error(), Code: ErrUnknownAttribute})
			continue
		}
		attrs, ok := known[viewName]
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   field + ".attr",
				Message: fmt.Sprintf("unknown view %q", viewName),
				Code:    ErrUnknownView,
			})
		case !attrs[attrName]:
			errs = append(errs, ValidationError{
				Field:   field + ".attr",
				Message: fmt.Sprintf("view %q has no attribute %q", viewName, attrName),
				Code:    ErrUnknownAttribute,
			})
		}

		if f.Aggregate != "" {
			if _, err := querysql.AggregateByName(f.Aggregate); err != nil {
				errs = append(errs, ValidationError{Field: field + ".aggregate", Message: err.Error(), Code: ErrInvalidAggregate})
			}
		}

		if grouping && !f.Hidden && f.GroupBy == (f.Aggregate != "") {
			msg := "visible field is neither a group key nor an aggregate"
			if f.GroupBy {
				msg = "field is both a group key and an aggregate"
			}
			errs = append(errs, ValidationError{Field: field, Message: msg, Code: ErrAggregateGroupBy})
		}
	}
	return errs
}

func validateRegister(q *queryir.Query, queryPath string, known map[string]map[string]bool) []ValidationError {
	var errs []ValidationError
	path := queryPath + ".register"

	name := q.Register.As
	if name == "" {
		name = q.Name
	}
	if _, taken := known[name]; taken {
		return append(errs, ValidationError{
			Field:   path + ".as",
			Message: fmt.Sprintf("view %q is already registered", name),
			Code:    ErrDuplicateView,
		})
	}

	outputs := make(map[string]bool)
	for j, f := range q.Select {
		if f.Hidden {
			continue
		}
		out := f.As
		if out == "" {
			if _, attr, err := ir.SplitQualified(f.Attr); err == nil {
				out = attr
			}
		}
		if outputs[out] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.select[%d]", queryPath, j),
				Message: fmt.Sprintf("output name %q is used twice", out),
				Code:    ErrDuplicateOutput,
			})
		}
		outputs[out] = true
	}

	for i, p := range q.Register.Pairs {
		field := fmt.Sprintf("%s.pairs[%d]", path, i)
		leftNew, leftErr := pairSide(p.Left, name, outputs, known)
		rightNew, rightErr := pairSide(p.Right, name, outputs, known)
		for _, e := range []error{leftErr, rightErr} {
			if e != nil {
				errs = append(errs, ValidationError{Field: field, Message: e.Error(), Code: ErrInvalidRegister})
			}
		}
		if leftErr == nil && rightErr == nil && leftNew == rightNew {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("pair must relate %s to an existing view", name),
				Code:    ErrInvalidRegister,
			})
		}
	}

	known[name] = outputs
	return errs
}

// pairSide resolves one side of a register pair, reporting whether it names
// the view being registered.
func pairSide(qualified, name string, outputs map[string]bool, known map[string]map[string]bool) (bool, error) {
	viewName, attrName, err := ir.SplitQualified(qualified)
	if err != nil {
		return false, err
	}
	if viewName == name {
		if !outputs[attrName] {
			return true, fmt.Errorf("%s does not expose %q", name, attrName)
		}
		return true, nil
	}
	attrs, ok := known[viewName]
	if !ok {
		return false, fmt.Errorf("unknown view %q", viewName)
	}
	if !attrs[attrName] {
		return false, fmt.Errorf("view %q has no attribute %q", viewName, attrName)
	}
	return false, nil
}
