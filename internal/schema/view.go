package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/joinery/internal/ir"
)

// View is a named data source: a table identifier or a parenthesized query.
type View struct {
	id     uuid.UUID
	name   string
	source string

	attrs map[string]*Attribute
	order []string
}

// NewView creates a view reading from source (a table name or "(<query>)")
// with the given attribute names. Names are NFC normalized and must be unique.
func NewView(source, name string, attributes ...string) (*View, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, &SchemaError{Code: ErrCodeInvalidView, Message: "view source is empty", View: name}
	}
	if name == "" {
		name = source
	}
	if len(attributes) == 0 {
		return nil, &SchemaError{Code: ErrCodeInvalidView, Message: "view must expose at least one attribute", View: name}
	}

	v := &View{
		id:     uuid.New(),
		name:   name,
		source: source,
		attrs:  make(map[string]*Attribute, len(attributes)),
		order:  make([]string, 0, len(attributes)),
	}
	for _, raw := range attributes {
		attrName := ir.NormalizeIdentifier(raw)
		if err := ir.ValidateIdentifier(attrName); err != nil {
			return nil, &SchemaError{Code: ErrCodeInvalidView, Message: err.Error(), View: name}
		}
		if _, dup := v.attrs[attrName]; dup {
			return nil, &SchemaError{
				Code:    ErrCodeInvalidView,
				Message: fmt.Sprintf("duplicate attribute %q", attrName),
				View:    name,
			}
		}
		v.attrs[attrName] = &Attribute{name: attrName, view: v}
		v.order = append(v.order, attrName)
	}
	return v, nil
}

// MustView is like NewView but panics on error.
// Use only in tests or for hand-declared schemas known to be valid.
func MustView(source, name string, attributes ...string) *View {
	v, err := NewView(source, name, attributes...)
	if err != nil {
		panic(err)
	}
	return v
}

// ID returns the view's unique identifier.
func (v *View) ID() uuid.UUID { return v.id }

// Name returns the human-friendly display name.
func (v *View) Name() string { return v.name }

// Source returns the text placed in a FROM clause for this view.
func (v *View) Source() string { return v.source }

// IsTable reports whether the source is a plain table identifier rather
// than a parenthesized query.
func (v *View) IsTable() bool { return !strings.HasPrefix(v.source, "(") }

// Attribute finds an attribute by name.
func (v *View) Attribute(name string) (*Attribute, error) {
	a, ok := v.attrs[ir.NormalizeIdentifier(name)]
	if !ok {
		return nil, &AttributeLookupError{View: v.name, Attribute: name}
	}
	return a, nil
}

// MustAttribute is like Attribute but panics on error.
func (v *View) MustAttribute(name string) *Attribute {
	a, err := v.Attribute(name)
	if err != nil {
		panic(err)
	}
	return a
}

// Attributes returns all attributes in declaration order.
func (v *View) Attributes() []*Attribute {
	out := make([]*Attribute, len(v.order))
	for i, n := range v.order {
		out[i] = v.attrs[n]
	}
	return out
}

// AttributeNames returns attribute names in declaration order.
func (v *View) AttributeNames() []string {
	return append([]string(nil), v.order...)
}

// String returns the source text.
func (v *View) String() string { return v.source }

// Attribute is a named column of exactly one view.
type Attribute struct {
	name string
	view *View
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// View returns the owning view.
func (a *Attribute) View() *View { return a.view }

// String returns "<view name>.<attribute>".
func (a *Attribute) String() string {
	return a.view.name + "." + a.name
}
