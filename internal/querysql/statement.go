package querysql

import (
	"fmt"
	"strconv"

	"github.com/roach88/joinery/internal/ir"
)

// Statement is a prepared SELECT: SQL text with placeholders plus the
// mapping from placeholder names to the attributes they filter.
//
// Placeholders are named "p1", "p2", ... in the order they appear in the
// WHERE clause. Args holds the value for each slot; slots of unbound
// conditions are nil until Bind is called.
type Statement struct {
	SQL     string
	Dialect string
	Names   []string
	Params  map[string]*SelectAttribute
	Args    []ir.Value
}

func newStatement(r *rendered, d Dialect) *Statement {
	st := &Statement{
		SQL:     r.sql,
		Dialect: d.Name,
		Names:   make([]string, len(r.args)),
		Params:  make(map[string]*SelectAttribute, len(r.args)),
		Args:    append([]ir.Value(nil), r.args...),
	}
	for i := range r.args {
		name := "p" + strconv.Itoa(i+1)
		st.Names[i] = name
		st.Params[name] = r.owners[i]
	}
	return st
}

// Bind sets the value of the named placeholder.
func (s *Statement) Bind(name string, v ir.Value) error {
	for i, n := range s.Names {
		if n == name {
			s.Args[i] = v
			return nil
		}
	}
	return fmt.Errorf("statement has no placeholder %q", name)
}

// Unbound lists placeholders that still have no value.
func (s *Statement) Unbound() []string {
	var out []string
	for i, v := range s.Args {
		if v == nil {
			out = append(out, s.Names[i])
		}
	}
	return out
}

// Values returns driver-ready arguments. Every placeholder must be bound.
func (s *Statement) Values() ([]any, error) {
	if unbound := s.Unbound(); len(unbound) > 0 {
		return nil, &ValidationError{
			Code:    ErrCodeUnboundCondition,
			Message: fmt.Sprintf("placeholders without values: %v", unbound),
		}
	}
	out := make([]any, len(s.Args))
	for i, v := range s.Args {
		val, err := ir.ToAny(v)
		if err != nil {
			return nil, fmt.Errorf("placeholder %s: %w", s.Names[i], err)
		}
		out[i] = val
	}
	return out, nil
}

// Fingerprint returns the content-addressed identity of the statement text
// and its bound values.
func (s *Statement) Fingerprint() (string, error) {
	return ir.StatementFingerprint(s.SQL, s.Args, s.Unbound())
}
