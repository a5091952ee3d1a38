package querysql

import (
	"fmt"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/schema"
)

// SelectOptions configures how one attribute takes part in a query.
// The zero value selects the attribute as a plain visible output column.
type SelectOptions struct {
	// Hidden keeps the attribute out of the SELECT list. Hidden attributes
	// may still filter, group or order.
	Hidden bool

	// OrderBy adds the attribute to ORDER BY.
	OrderBy bool

	// GroupBy adds the attribute to GROUP BY.
	GroupBy bool

	// Condition adds a predicate on the attribute to WHERE.
	Condition *Condition

	// Aggregate wraps the attribute expression in an aggregate function.
	Aggregate *Aggregate

	// As renames the output column. It becomes the attribute's lookup name
	// when the query is wrapped as a view.
	As string
}

// SelectAttribute is a per-query annotated reference to a view attribute.
// It is created by Select and discarded with the query.
type SelectAttribute struct {
	attr *schema.Attribute
	opts SelectOptions
}

// Select annotates attr with opts. Options are validated once, here.
func Select(attr *schema.Attribute, opts SelectOptions) (*SelectAttribute, error) {
	if attr == nil {
		return nil, &ValidationError{Code: ErrCodeOptions, Message: "attribute is nil"}
	}
	if opts.Condition != nil && opts.Condition.Err() != nil {
		return nil, &ValidationError{
			Code:       ErrCodeOptions,
			Message:    opts.Condition.Err().Error(),
			Attributes: []string{attr.String()},
		}
	}
	if opts.As != "" {
		opts.As = ir.NormalizeIdentifier(opts.As)
		if err := ir.ValidateIdentifier(opts.As); err != nil {
			return nil, &ValidationError{
				Code:       ErrCodeOptions,
				Message:    fmt.Sprintf("output name: %v", err),
				Attributes: []string{attr.String()},
			}
		}
	}
	return &SelectAttribute{attr: attr, opts: opts}, nil
}

// MustSelect is like Select but panics on error.
func MustSelect(attr *schema.Attribute, opts SelectOptions) *SelectAttribute {
	sa, err := Select(attr, opts)
	if err != nil {
		panic(err)
	}
	return sa
}

// Name returns the source attribute name.
func (s *SelectAttribute) Name() string { return s.attr.Name() }

// View returns the owning view.
func (s *SelectAttribute) View() *schema.View { return s.attr.View() }

// Attribute returns the underlying schema attribute.
func (s *SelectAttribute) Attribute() *schema.Attribute { return s.attr }

// Visible reports whether the attribute appears in the SELECT list.
func (s *SelectAttribute) Visible() bool { return !s.opts.Hidden }

// OrderBy reports whether the attribute appears in ORDER BY.
func (s *SelectAttribute) OrderBy() bool { return s.opts.OrderBy }

// GroupBy reports whether the attribute appears in GROUP BY.
func (s *SelectAttribute) GroupBy() bool { return s.opts.GroupBy }

// Condition returns the WHERE predicate, or nil.
func (s *SelectAttribute) Condition() *Condition { return s.opts.Condition }

// Aggregate returns the aggregate function, or nil.
func (s *SelectAttribute) Aggregate() *Aggregate { return s.opts.Aggregate }

// AltName returns the output rename, or "".
func (s *SelectAttribute) AltName() string { return s.opts.As }

// RealName is the canonical output name: the rename if set, else the
// attribute name.
func (s *SelectAttribute) RealName() string {
	if s.opts.As != "" {
		return s.opts.As
	}
	return s.attr.Name()
}

// Expr renders "<alias>.<name>", wrapped in the aggregate if one is set.
// This is the form used in WHERE, GROUP BY and ORDER BY.
func (s *SelectAttribute) Expr(alias string) string {
	base := alias + "." + s.attr.Name()
	if s.opts.Aggregate != nil {
		base = s.opts.Aggregate.Wrap(base)
	}
	return base
}

// Output renders the SELECT list entry: Expr plus " as <altName>" when renamed.
func (s *SelectAttribute) Output(alias string) string {
	out := s.Expr(alias)
	if s.opts.As != "" {
		out += " as " + s.opts.As
	}
	return out
}

// String returns "<View>.<attr>" for diagnostics.
func (s *SelectAttribute) String() string { return s.attr.String() }
