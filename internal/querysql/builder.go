package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/schema"
)

// renderMode selects how conditions are rendered.
type renderMode int

const (
	// modePlaceholder renders one placeholder per condition slot.
	modePlaceholder renderMode = iota
	// modeLiteral inlines bound values as literals.
	modeLiteral
	// modeSource omits conditions entirely (nested view definitions).
	modeSource
)

// Builder assembles one SELECT statement from selected attributes.
type Builder struct {
	schema  *schema.Schema
	dialect Dialect
	tree    *JoinTree
	attrs   []*SelectAttribute

	// err is the first error hit by Select; it poisons the builder.
	err error
}

// Option configures a Builder.
type Option func(*Builder)

// WithDialect sets the dialect used for placeholders and literals.
func WithDialect(d Dialect) Option {
	return func(b *Builder) { b.dialect = d }
}

// NewBuilder creates a builder over s. The default dialect is Generic.
func NewBuilder(s *schema.Schema, opts ...Option) *Builder {
	b := &Builder{
		schema:  s,
		dialect: Generic,
		tree:    NewJoinTree(s),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Select appends attributes to the query in order, placing each owning view
// in the join tree. The first error is sticky: every later call on the
// builder returns it.
func (b *Builder) Select(attrs ...*SelectAttribute) error {
	for _, a := range attrs {
		if b.err != nil {
			return b.err
		}
		if a == nil {
			b.err = &ValidationError{Code: ErrCodeOptions, Message: "select attribute is nil"}
			return b.err
		}
		if !b.schema.Has(a.View()) {
			b.err = &schema.SchemaError{
				Code:    schema.ErrCodeUnknownView,
				Message: "selected attribute belongs to a view that is not registered",
				View:    a.View().Name(),
			}
			return b.err
		}
		if err := b.tree.AddView(a.View()); err != nil {
			b.err = fmt.Errorf("select %s: %w", a, err)
			return b.err
		}
		b.attrs = append(b.attrs, a)
	}
	return b.err
}

// Attributes returns the selected attributes in selection order.
func (b *Builder) Attributes() []*SelectAttribute {
	return append([]*SelectAttribute(nil), b.attrs...)
}

// Tree exposes the join tree (read-only use).
func (b *Builder) Tree() *JoinTree { return b.tree }

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect { return b.dialect }

// Validate checks the aggregate/group-by rule over visible attributes.
//
// With V the visible attributes, G the visible group keys and A the visible
// aggregates: when G or A is non-empty, G and A must be disjoint and
// together cover V. A query with neither is a flat projection and always
// passes. Hidden attributes never take part.
func (b *Builder) Validate() error {
	if b.err != nil {
		return b.err
	}

	var visible, grouped, aggregated, both, plain []string
	for _, a := range b.attrs {
		if !a.Visible() {
			continue
		}
		visible = append(visible, a.String())
		g, agg := a.GroupBy(), a.Aggregate() != nil
		switch {
		case g && agg:
			both = append(both, a.String())
		case g:
			grouped = append(grouped, a.String())
		case agg:
			aggregated = append(aggregated, a.String())
		default:
			plain = append(plain, a.String())
		}
	}

	if len(visible) == 0 {
		return &ValidationError{Code: ErrCodeEmptySelect, Message: "query has no visible attribute"}
	}
	if len(grouped)+len(aggregated)+len(both) == 0 {
		return nil
	}
	if len(both) > 0 {
		return &ValidationError{
			Code:       ErrCodeAggregateGroupBy,
			Message:    "aggregate and group by: attribute is both a group key and an aggregate",
			Attributes: both,
		}
	}
	if len(plain) > 0 {
		return &ValidationError{
			Code:       ErrCodeAggregateGroupBy,
			Message:    "aggregate and group by: visible attribute is neither a group key nor an aggregate",
			Attributes: plain,
		}
	}
	return nil
}

// rendered is the output of one assembly pass.
type rendered struct {
	sql    string
	args   []ir.Value
	owners []*SelectAttribute
}

func (b *Builder) render(mode renderMode) (*rendered, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	from, err := b.tree.Render()
	if err != nil {
		return nil, err
	}

	out := &rendered{}
	var columns, where, groupBy, orderBy []string
	for _, a := range b.attrs {
		alias, err := b.tree.Alias(a.View())
		if err != nil {
			return nil, err
		}
		expr := a.Expr(alias)

		if a.Visible() {
			columns = append(columns, a.Output(alias))
		}
		if c := a.Condition(); c != nil {
			switch mode {
			case modePlaceholder:
				text, slots := c.renderPlaceholder(expr)
				where = append(where, text)
				out.args = append(out.args, slots...)
				for range slots {
					out.owners = append(out.owners, a)
				}
			case modeLiteral:
				text, err := c.renderLiteral(expr, b.dialect)
				if err != nil {
					return nil, err
				}
				where = append(where, text)
			}
		}
		if a.GroupBy() {
			groupBy = append(groupBy, expr)
		}
		if a.OrderBy() {
			orderBy = append(orderBy, expr)
		}
	}

	// squirrel assembles the clauses in fixed order. Placeholder rewriting
	// is applied to the WHERE text only, so literals in nested sources are
	// never touched.
	q := sq.Select(columns...).From(from).PlaceholderFormat(sq.Question)
	if len(where) > 0 {
		clause := strings.Join(where, " AND ")
		if mode == modePlaceholder {
			if clause, err = b.dialect.placeholders(clause); err != nil {
				return nil, fmt.Errorf("rewrite placeholders: %w", err)
			}
		}
		q = q.Where(clause)
	}
	if len(groupBy) > 0 {
		q = q.GroupBy(groupBy...)
	}
	if len(orderBy) > 0 {
		q = q.OrderBy(orderBy...)
	}

	out.sql, _, err = q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("assemble select: %w", err)
	}
	return out, nil
}

// Prepare builds the statement with placeholder-bound conditions. The
// Statement maps each placeholder name to the attribute it filters.
func (b *Builder) Prepare() (*Statement, error) {
	r, err := b.render(modePlaceholder)
	if err != nil {
		return nil, err
	}
	return newStatement(r, b.dialect), nil
}

// Build is Prepare under the name callers of the query builder expect.
func (b *Builder) Build() (*Statement, error) {
	return b.Prepare()
}

// Literal builds the SQL text with every condition's values inlined.
// Unbound conditions fail with ErrCodeUnboundCondition.
func (b *Builder) Literal() (string, error) {
	r, err := b.render(modeLiteral)
	if err != nil {
		return "", err
	}
	return r.sql, nil
}

// Source builds the SQL text used when this query is nested inside
// another: conditions are omitted, every other clause is kept.
func (b *Builder) Source() (string, error) {
	r, err := b.render(modeSource)
	if err != nil {
		return "", err
	}
	return r.sql, nil
}
