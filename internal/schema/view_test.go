package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewView(t *testing.T) {
	v, err := NewView("books", "Books", "title", "author")
	require.NoError(t, err)

	assert.Equal(t, "Books", v.Name())
	assert.Equal(t, "books", v.Source())
	assert.True(t, v.IsTable())
	assert.Equal(t, []string{"title", "author"}, v.AttributeNames())
	assert.NotEqual(t, MustView("books", "Books", "title").ID(), v.ID())

	a, err := v.Attribute("author")
	require.NoError(t, err)
	assert.Same(t, v, a.View())
	assert.Equal(t, "Books.author", a.String())
}

func TestNewView_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		source string
		attrs  []string
	}{
		{"empty source", " ", []string{"a"}},
		{"no attributes", "books", nil},
		{"duplicate attribute", "books", []string{"a", "a"}},
		{"bad identifier", "books", []string{"not valid"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewView(tc.source, "Books", tc.attrs...)
			require.Error(t, err)
			assert.True(t, IsSchemaError(err, ErrCodeInvalidView))
		})
	}
}

func TestView_AttributeNotFound(t *testing.T) {
	v := MustView("books", "Books", "title")
	_, err := v.Attribute("isbn")
	require.Error(t, err)
	assert.True(t, IsAttributeLookupError(err))
	assert.Contains(t, err.Error(), `"isbn"`)
}

func TestView_SubquerySource(t *testing.T) {
	v := MustView("(SELECT 1 AS one)", "One", "one")
	assert.False(t, v.IsTable())
}

func TestRelation_RenderCompositeKey(t *testing.T) {
	orders := MustView("orders", "Orders", "id", "region", "customer")
	customers := MustView("customers", "Customers", "id", "region")

	p1, err := NewAttrPair(orders.MustAttribute("customer"), customers.MustAttribute("id"))
	require.NoError(t, err)
	p2, err := NewAttrPair(orders.MustAttribute("region"), customers.MustAttribute("region"))
	require.NoError(t, err)
	rel, err := NewRelation(p1, p2)
	require.NoError(t, err)

	// Rendered from the customers side: parent alias first, pair order kept.
	got, err := rel.Render(customers, "A", orders, "B")
	require.NoError(t, err)
	assert.Equal(t, "A.id = B.customer AND A.region = B.region", got)

	got, err = rel.Render(orders, "A", customers, "B")
	require.NoError(t, err)
	assert.Equal(t, "A.customer = B.id AND A.region = B.region", got)

	assert.Equal(t, "Orders.customer = Customers.id AND Orders.region = Customers.region", rel.String())
}

func TestRelation_Invalid(t *testing.T) {
	a := MustView("a", "A", "x")
	b := MustView("b", "B", "x")
	c := MustView("c", "C", "x")

	_, err := NewRelation()
	assert.True(t, IsSchemaError(err, ErrCodeInvalidRelation))

	_, err = NewAttrPair(a.MustAttribute("x"), a.MustAttribute("x"))
	assert.True(t, IsSchemaError(err, ErrCodeInvalidRelation))

	ab, err := NewAttrPair(a.MustAttribute("x"), b.MustAttribute("x"))
	require.NoError(t, err)
	ac, err := NewAttrPair(a.MustAttribute("x"), c.MustAttribute("x"))
	require.NoError(t, err)
	_, err = NewRelation(ab, ac)
	assert.True(t, IsSchemaError(err, ErrCodeInvalidRelation))

	_, err = NewRelation(AttrPair{Left: a.MustAttribute("x")})
	assert.True(t, IsSchemaError(err, ErrCodeInvalidRelation))
}

func TestAttrPair_Other(t *testing.T) {
	a := MustView("a", "A", "x")
	b := MustView("b", "B", "y")
	c := MustView("c", "C", "z")
	p, err := NewAttrPair(a.MustAttribute("x"), b.MustAttribute("y"))
	require.NoError(t, err)

	other, ok := p.Other(a)
	assert.True(t, ok)
	assert.Same(t, b, other)

	_, ok = p.Other(c)
	assert.False(t, ok)

	_, err = p.AttributeOf(c)
	assert.Error(t, err)
}
