package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/joinery/internal/ir"
)

// Aggregate is a named SQL function wrapping an attribute expression,
// rendered as "<NAME>( <expr> )".
type Aggregate struct {
	name     string
	distinct bool
}

// NewAggregate creates an aggregate with the given function name.
func NewAggregate(name string) (*Aggregate, error) {
	name = strings.ToUpper(ir.NormalizeIdentifier(name))
	if err := ir.ValidateIdentifier(name); err != nil {
		return nil, fmt.Errorf("aggregate function: %w", err)
	}
	return &Aggregate{name: name}, nil
}

// Count wraps an expression in COUNT.
func Count() *Aggregate { return &Aggregate{name: "COUNT"} }

// CountDistinct wraps an expression in COUNT( DISTINCT ... ).
func CountDistinct() *Aggregate { return &Aggregate{name: "COUNT", distinct: true} }

// Sum wraps an expression in SUM.
func Sum() *Aggregate { return &Aggregate{name: "SUM"} }

// Avg wraps an expression in AVG.
func Avg() *Aggregate { return &Aggregate{name: "AVG"} }

// Min wraps an expression in MIN.
func Min() *Aggregate { return &Aggregate{name: "MIN"} }

// Max wraps an expression in MAX.
func Max() *Aggregate { return &Aggregate{name: "MAX"} }

// AggregateByName resolves a function name, accepting "COUNT_DISTINCT" for
// CountDistinct. Any other valid identifier becomes a plain aggregate.
func AggregateByName(name string) (*Aggregate, error) {
	if strings.EqualFold(name, "count_distinct") {
		return CountDistinct(), nil
	}
	return NewAggregate(name)
}

// Name returns the function name.
func (a *Aggregate) Name() string { return a.name }

// Distinct reports whether DISTINCT is applied to the argument.
func (a *Aggregate) Distinct() bool { return a.distinct }

// Wrap renders the aggregate around expr.
func (a *Aggregate) Wrap(expr string) string {
	if a.distinct {
		return a.name + "( DISTINCT " + expr + " )"
	}
	return a.name + "( " + expr + " )"
}
