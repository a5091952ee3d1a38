package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/joinery/internal/ir"
)

// ExprToken marks where the attribute expression goes in a condition template.
const ExprToken = "{}"

// Condition is a predicate attached to one selected attribute.
//
// The template holds ExprToken for the attribute expression and one "?" per
// value slot, e.g. "{} BETWEEN ? AND ?". A condition is either bound (one
// value per slot) or unbound (no values; the caller binds them when the
// statement is executed). Conditions without slots are always bound.
type Condition struct {
	template string
	values   []ir.Value
	slots    int
	err      error
}

// NewCondition creates a condition from a template and optional values.
// Construction problems are reported when the condition is attached to an
// attribute with Select.
func NewCondition(template string, values ...ir.Value) *Condition {
	c := &Condition{
		template: template,
		values:   append([]ir.Value(nil), values...),
		slots:    strings.Count(template, "?"),
	}
	c.err = c.check()
	return c
}

func (c *Condition) check() error {
	if !strings.Contains(c.template, ExprToken) {
		return fmt.Errorf("condition template %q must contain %s", c.template, ExprToken)
	}
	if len(c.values) != 0 && len(c.values) != c.slots {
		return fmt.Errorf("condition template %q has %d value slot(s), got %d value(s)", c.template, c.slots, len(c.values))
	}
	for i, v := range c.values {
		switch v.(type) {
		case ir.List, ir.Object:
			return fmt.Errorf("condition value %d must be a scalar, got %T", i, v)
		}
	}
	return nil
}

// Eq renders "<expr> = ?". Pass no value to leave the slot for the caller.
func Eq(v ...ir.Value) *Condition { return NewCondition("{} = ?", v...) }

// NotEq renders "<expr> <> ?".
func NotEq(v ...ir.Value) *Condition { return NewCondition("{} <> ?", v...) }

// Lt renders "<expr> < ?".
func Lt(v ...ir.Value) *Condition { return NewCondition("{} < ?", v...) }

// Lte renders "<expr> <= ?".
func Lte(v ...ir.Value) *Condition { return NewCondition("{} <= ?", v...) }

// Gt renders "<expr> > ?".
func Gt(v ...ir.Value) *Condition { return NewCondition("{} > ?", v...) }

// Gte renders "<expr> >= ?".
func Gte(v ...ir.Value) *Condition { return NewCondition("{} >= ?", v...) }

// Like renders "<expr> LIKE ?".
func Like(v ...ir.Value) *Condition { return NewCondition("{} LIKE ?", v...) }

// Between renders "<expr> BETWEEN ? AND ?".
func Between(v ...ir.Value) *Condition { return NewCondition("{} BETWEEN ? AND ?", v...) }

// In renders "<expr> IN (?, ...)" with one slot per value, all bound.
func In(values ...ir.Value) *Condition {
	if len(values) == 0 {
		c := NewCondition("{} IN ()")
		c.err = fmt.Errorf("IN condition needs at least one value")
		return c
	}
	return NewCondition(inTemplate(len(values)), values...)
}

// InParams renders "<expr> IN (?, ...)" with n unbound slots.
func InParams(n int) *Condition {
	if n < 1 {
		c := NewCondition("{} IN ()")
		c.err = fmt.Errorf("IN condition needs at least one slot")
		return c
	}
	return NewCondition(inTemplate(n))
}

// IsNull renders "<expr> IS NULL".
func IsNull() *Condition { return NewCondition("{} IS NULL") }

// IsNotNull renders "<expr> IS NOT NULL".
func IsNotNull() *Condition { return NewCondition("{} IS NOT NULL") }

func inTemplate(n int) string {
	return "{} IN (" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

// Err returns the construction error, if any.
func (c *Condition) Err() error { return c.err }

// Slots returns the number of value slots.
func (c *Condition) Slots() int { return c.slots }

// Bound reports whether every slot has a value.
func (c *Condition) Bound() bool {
	return c.slots == 0 || len(c.values) == c.slots
}

// Values returns the bound values (nil when unbound).
func (c *Condition) Values() []ir.Value {
	return append([]ir.Value(nil), c.values...)
}

// Template returns the raw template.
func (c *Condition) Template() string { return c.template }

// renderLiteral substitutes expr and every bound value as a literal.
func (c *Condition) renderLiteral(expr string, d Dialect) (string, error) {
	if !c.Bound() {
		return "", &ValidationError{
			Code:    ErrCodeUnboundCondition,
			Message: fmt.Sprintf("condition %q on %s has no bound values", c.template, expr),
		}
	}
	var sb strings.Builder
	slot := 0
	text := strings.ReplaceAll(c.template, ExprToken, expr)
	for i := 0; i < len(text); i++ {
		if text[i] != '?' || slot >= c.slots {
			sb.WriteByte(text[i])
			continue
		}
		lit, err := d.Literal(c.values[slot])
		if err != nil {
			return "", err
		}
		sb.WriteString(lit)
		slot++
	}
	return sb.String(), nil
}

// renderPlaceholder substitutes expr and leaves "?" for every slot. The
// returned args hold the bound value per slot, or nil for unbound slots.
func (c *Condition) renderPlaceholder(expr string) (string, []ir.Value) {
	args := make([]ir.Value, c.slots)
	if len(c.values) == c.slots {
		copy(args, c.values)
	}
	return strings.ReplaceAll(c.template, ExprToken, expr), args
}

// String renders the condition with "{}" kept and values shown for diagnostics.
func (c *Condition) String() string {
	if len(c.values) == 0 {
		return c.template
	}
	shown := make([]string, len(c.values))
	for i, v := range c.values {
		shown[i] = ir.Display(v)
	}
	return c.template + " [" + strings.Join(shown, ", ") + "]"
}
