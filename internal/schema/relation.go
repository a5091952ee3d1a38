package schema

import (
	"fmt"
	"strings"
)

// AttrPair is one equality predicate between attributes of two distinct views.
type AttrPair struct {
	Left  *Attribute
	Right *Attribute
}

// NewAttrPair creates a pair. The attributes must belong to different views.
func NewAttrPair(left, right *Attribute) (AttrPair, error) {
	if left == nil || right == nil {
		return AttrPair{}, &SchemaError{Code: ErrCodeInvalidRelation, Message: "attribute pair has a nil attribute"}
	}
	if left.view == right.view {
		return AttrPair{}, newSchemaError(ErrCodeInvalidRelation, "attribute pair must reference two distinct views", left.view, nil)
	}
	return AttrPair{Left: left, Right: right}, nil
}

// Other returns the view opposite to v in this pair.
func (p AttrPair) Other(v *View) (*View, bool) {
	switch v {
	case p.Left.view:
		return p.Right.view, true
	case p.Right.view:
		return p.Left.view, true
	default:
		return nil, false
	}
}

// AttributeOf returns the pair's attribute that belongs to v.
func (p AttrPair) AttributeOf(v *View) (*Attribute, error) {
	switch v {
	case p.Left.view:
		return p.Left, nil
	case p.Right.view:
		return p.Right, nil
	default:
		return nil, newSchemaError(ErrCodeInvalidRelation, "views do not match attribute pair", v, nil)
	}
}

// Relation is a non-empty, ordered list of attribute pairs all binding the
// same two views. Pairs render ANDed together.
type Relation struct {
	pairs []AttrPair
}

// NewRelation creates a relation from one or more pairs (a composite key).
func NewRelation(pairs ...AttrPair) (*Relation, error) {
	if len(pairs) == 0 {
		return nil, &SchemaError{Code: ErrCodeInvalidRelation, Message: "relation needs at least one attribute pair"}
	}
	for i, p := range pairs {
		if p.Left == nil || p.Right == nil || p.Left.view == p.Right.view {
			return nil, &SchemaError{
				Code:    ErrCodeInvalidRelation,
				Message: fmt.Sprintf("pair %d must reference attributes of two distinct views", i),
			}
		}
	}
	a, b := pairs[0].Left.view, pairs[0].Right.view
	for i, p := range pairs[1:] {
		same := (p.Left.view == a && p.Right.view == b) || (p.Left.view == b && p.Right.view == a)
		if !same {
			return nil, &SchemaError{
				Code:    ErrCodeInvalidRelation,
				Message: fmt.Sprintf("pair %d references views other than %s and %s", i+1, a.name, b.name),
			}
		}
	}
	return &Relation{pairs: append([]AttrPair(nil), pairs...)}, nil
}

// Join is shorthand for a single-pair relation between two attributes.
func Join(left, right *Attribute) (*Relation, error) {
	pair, err := NewAttrPair(left, right)
	if err != nil {
		return nil, err
	}
	return NewRelation(pair)
}

// MustJoin is like Join but panics on error.
func MustJoin(left, right *Attribute) *Relation {
	r, err := Join(left, right)
	if err != nil {
		panic(err)
	}
	return r
}

// Pairs returns the attribute pairs in declaration order.
func (r *Relation) Pairs() []AttrPair {
	return append([]AttrPair(nil), r.pairs...)
}

// Views returns the two views bound by this relation, left view first.
func (r *Relation) Views() (*View, *View) {
	return r.pairs[0].Left.view, r.pairs[0].Right.view
}

// Other returns the view related to v through this relation.
func (r *Relation) Other(v *View) (*View, bool) {
	return r.pairs[0].Other(v)
}

// Render produces the ON predicate joining child (aliased childAlias) to
// parent (aliased parentAlias): one "<parent>.<attr> = <child>.<attr>"
// equality per pair, in pair order, joined by " AND ".
func (r *Relation) Render(parent *View, parentAlias string, child *View, childAlias string) (string, error) {
	parts := make([]string, 0, len(r.pairs))
	for _, p := range r.pairs {
		pa, err := p.AttributeOf(parent)
		if err != nil {
			return "", err
		}
		ca, err := p.AttributeOf(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, parentAlias+"."+pa.name+" = "+childAlias+"."+ca.name)
	}
	return strings.Join(parts, " AND "), nil
}

// String renders the relation with view names in place of aliases.
func (r *Relation) String() string {
	parts := make([]string, len(r.pairs))
	for i, p := range r.pairs {
		parts[i] = p.Left.String() + " = " + p.Right.String()
	}
	return strings.Join(parts, " AND ")
}
