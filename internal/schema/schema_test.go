package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type library struct {
	books, publishers, categories, cities *View
}

func newLibrary(t *testing.T) (*Schema, library) {
	t.Helper()

	lib := library{
		books:      MustView("books", "Books", "title", "author", "year", "publisher", "category"),
		publishers: MustView("publishers", "Publishers", "id", "name", "city"),
		categories: MustView("categories", "Categories", "id", "category_name"),
		cities:     MustView("cities", "Cities", "id", "city_name"),
	}

	s := New()
	require.NoError(t, s.AddView(lib.books, nil))
	require.NoError(t, s.AddView(lib.publishers,
		MustJoin(lib.books.MustAttribute("publisher"), lib.publishers.MustAttribute("id"))))
	require.NoError(t, s.AddView(lib.categories,
		MustJoin(lib.books.MustAttribute("category"), lib.categories.MustAttribute("id"))))
	require.NoError(t, s.AddView(lib.cities,
		MustJoin(lib.publishers.MustAttribute("city"), lib.cities.MustAttribute("id"))))
	return s, lib
}

func TestAddView_FirstViewNeedsNoRelation(t *testing.T) {
	s := New()
	v := MustView("books", "Books", "title")

	require.NoError(t, s.AddView(v, nil))
	assert.True(t, s.Has(v))
	assert.Empty(t, s.RelatedViews(v))
	assert.Equal(t, 1, s.Len())
}

func TestAddView_SecondViewWithoutRelation(t *testing.T) {
	s := New()
	require.NoError(t, s.AddView(MustView("books", "Books", "title"), nil))

	err := s.AddView(MustView("publishers", "Publishers", "id"), nil)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err, ErrCodeNoRelatedView))
	assert.Contains(t, err.Error(), "no related view")
}

func TestAddView_RelationToUnregisteredView(t *testing.T) {
	s := New()
	books := MustView("books", "Books", "title", "publisher")
	publishers := MustView("publishers", "Publishers", "id", "city")
	cities := MustView("cities", "Cities", "id")
	require.NoError(t, s.AddView(books, nil))

	// publishers is not registered yet, so cities cannot hang off it.
	err := s.AddView(cities, MustJoin(publishers.MustAttribute("city"), cities.MustAttribute("id")))
	require.Error(t, err)
	assert.True(t, IsSchemaError(err, ErrCodeUnknownView))
	assert.False(t, s.Has(cities))
}

func TestAddView_RelationNotInvolvingView(t *testing.T) {
	s, lib := newLibrary(t)
	orphan := MustView("orphans", "Orphans", "id")

	err := s.AddView(orphan, MustJoin(lib.books.MustAttribute("publisher"), lib.publishers.MustAttribute("id")))
	require.Error(t, err)
	assert.True(t, IsSchemaError(err, ErrCodeInvalidRelation))
}

func TestAddView_Duplicate(t *testing.T) {
	s, lib := newLibrary(t)
	err := s.AddView(lib.books, nil)
	assert.True(t, IsSchemaError(err, ErrCodeDuplicateView))
}

func TestRelatedViews_RegistrationOrder(t *testing.T) {
	s, lib := newLibrary(t)

	assert.Equal(t, []*View{lib.publishers, lib.categories}, s.RelatedViews(lib.books))
	assert.Equal(t, []*View{lib.books, lib.cities}, s.RelatedViews(lib.publishers))
	assert.Equal(t, []*View{lib.publishers}, s.RelatedViews(lib.cities))
}

func TestRelation_BothOrderings(t *testing.T) {
	s, lib := newLibrary(t)

	r1, ok := s.Relation(lib.books, lib.publishers)
	require.True(t, ok)
	r2, ok := s.Relation(lib.publishers, lib.books)
	require.True(t, ok)
	assert.Same(t, r1, r2)

	_, ok = s.Relation(lib.books, lib.cities)
	assert.False(t, ok)
}

func TestAddRelation_AllowsNonTreeGraph(t *testing.T) {
	s, lib := newLibrary(t)

	rel := MustJoin(lib.categories.MustAttribute("id"), lib.cities.MustAttribute("id"))
	require.NoError(t, s.AddRelation(rel))

	assert.Equal(t, []*View{lib.books, lib.cities}, s.RelatedViews(lib.categories))
	got, ok := s.Relation(lib.cities, lib.categories)
	require.True(t, ok)
	assert.Same(t, rel, got)

	err := s.AddRelation(rel)
	assert.True(t, IsSchemaError(err, ErrCodeInvalidRelation))

	rels := s.Relations()
	require.Len(t, rels, 4)
	assert.Same(t, rel, rels[3])
}

func TestViewByName(t *testing.T) {
	s, lib := newLibrary(t)

	v, err := s.ViewByName("Cities")
	require.NoError(t, err)
	assert.Same(t, lib.cities, v)

	_, err = s.ViewByName("Nope")
	assert.True(t, IsSchemaError(err, ErrCodeUnknownView))

	// Display names may collide; identity is by reference.
	twin := MustView("books_archive", "Books", "title")
	require.NoError(t, s.AddView(twin, MustJoin(lib.books.MustAttribute("title"), twin.MustAttribute("title"))))
	_, err = s.ViewByName("Books")
	assert.True(t, IsSchemaError(err, ErrCodeInvalidView))
}

func TestClone_IsolatesRegistrations(t *testing.T) {
	s, lib := newLibrary(t)
	c := s.Clone()

	shelves := MustView("shelves", "Shelves", "id", "book")
	require.NoError(t, c.AddView(shelves, MustJoin(lib.books.MustAttribute("title"), shelves.MustAttribute("book"))))

	assert.True(t, c.Has(shelves))
	assert.False(t, s.Has(shelves))
	assert.Len(t, s.Views(), 4)
	assert.Len(t, s.Relations(), 3)
	assert.Equal(t, []*View{lib.publishers, lib.categories}, s.RelatedViews(lib.books))
	assert.Equal(t, []*View{lib.publishers, lib.categories, shelves}, c.RelatedViews(lib.books))

	got, ok := c.Relation(lib.cities, lib.publishers)
	require.True(t, ok)
	want, _ := s.Relation(lib.publishers, lib.cities)
	assert.Same(t, want, got)
}
