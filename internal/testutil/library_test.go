package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLibrary_RelationOrder(t *testing.T) {
	lib := NewLibrary(t)

	assert.Equal(t, 4, lib.Schema.Len())
	related := lib.Schema.RelatedViews(lib.Publishers)
	assert.Equal(t, []string{"Books", "Cities"}, []string{related[0].Name(), related[1].Name()})
}

func TestNewLibrary_FreshIdentity(t *testing.T) {
	a := NewLibrary(t)
	b := NewLibrary(t)
	assert.NotEqual(t, a.Books.ID(), b.Books.ID())
	assert.False(t, a.Schema.Has(b.Books))
}

func TestLibrary_Attr(t *testing.T) {
	lib := NewLibrary(t)
	attr := lib.Attr(t, "Categories.category_name")
	assert.Same(t, lib.Categories, attr.View())
}

func TestCaptureLogs(t *testing.T) {
	logs := CaptureLogs(t)
	slog.Debug("captured", "k", "v")
	assert.Contains(t, logs.String(), "captured")
	assert.Contains(t, logs.String(), "k=v")
}
