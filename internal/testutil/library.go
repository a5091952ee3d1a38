package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/schema"
)

// Library is the bookshop schema used across package tests:
//
//	Books.publisher = Publishers.id
//	Books.category  = Categories.id
//	Publishers.city = Cities.id
//
// Views are registered in that order, so RelatedViews(Publishers) starts
// with Books and then Cities.
type Library struct {
	Schema     *schema.Schema
	Books      *schema.View
	Publishers *schema.View
	Categories *schema.View
	Cities     *schema.View
}

// NewLibrary builds a fresh Library. Every call returns new views, so tests
// never share identity.
func NewLibrary(t testing.TB) *Library {
	t.Helper()

	lib := &Library{
		Schema:     schema.New(),
		Books:      schema.MustView("books", "Books", "title", "author", "year", "publisher", "category"),
		Publishers: schema.MustView("publishers", "Publishers", "id", "name", "city"),
		Categories: schema.MustView("categories", "Categories", "id", "category_name"),
		Cities:     schema.MustView("cities", "Cities", "id", "city_name"),
	}

	require.NoError(t, lib.Schema.AddView(lib.Books, nil))
	require.NoError(t, lib.Schema.AddView(lib.Publishers, schema.MustJoin(
		lib.Books.MustAttribute("publisher"), lib.Publishers.MustAttribute("id"))))
	require.NoError(t, lib.Schema.AddView(lib.Categories, schema.MustJoin(
		lib.Books.MustAttribute("category"), lib.Categories.MustAttribute("id"))))
	require.NoError(t, lib.Schema.AddView(lib.Cities, schema.MustJoin(
		lib.Publishers.MustAttribute("city"), lib.Cities.MustAttribute("id"))))
	return lib
}

// Attr looks up "View.attr" against the library's views.
func (l *Library) Attr(t testing.TB, qualified string) *schema.Attribute {
	t.Helper()
	for _, v := range l.Schema.Views() {
		for _, a := range v.Attributes() {
			if a.String() == qualified {
				return a
			}
		}
	}
	require.FailNowf(t, "unknown attribute", "%s is not part of the library schema", qualified)
	return nil
}

// LibraryCUE is the same schema as NewLibrary, in the CUE document form the
// compiler accepts.
const LibraryCUE = `
views: [
	{name: "Books", source: "books", attributes: ["title", "author", "year", "publisher", "category"]},
	{name: "Publishers", source: "publishers", attributes: ["id", "name", "city"],
		relation: pairs: [{left: "Books.publisher", right: "Publishers.id"}]},
	{name: "Categories", source: "categories", attributes: ["id", "category_name"],
		relation: pairs: [{left: "Books.category", right: "Categories.id"}]},
	{name: "Cities", source: "cities", attributes: ["id", "city_name"],
		relation: pairs: [{left: "Publishers.city", right: "Cities.id"}]},
]
`
