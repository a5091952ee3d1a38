package queryir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/ir"
)

const authorsDoc = `
version: "1"
queries:
  - name: authors_by_category
    select:
      - {attr: Books.author, aggregate: count, as: Authors}
      - {attr: Categories.category_name, group_by: true}
      - attr: Books.year
        group_by: true
        order_by: true
        where: {op: in, values: [2012, 2013]}
      - {attr: Books.publisher, group_by: true}
    register:
      as: AuthorsView
      pairs: [{left: AuthorsView.publisher, right: Publishers.id}]
  - name: authors_by_publisher
    select:
      - {attr: AuthorsView.Authors}
      - {attr: Publishers.name}
`

func TestParse_Document(t *testing.T) {
	doc, err := ParseBytes([]byte(authorsDoc))
	require.NoError(t, err)
	require.Len(t, doc.Queries, 2)

	q, ok := doc.Query("authors_by_category")
	require.True(t, ok)
	require.Len(t, q.Select, 4)
	assert.Equal(t, "Books.author", q.Select[0].Attr)
	assert.Equal(t, "count", q.Select[0].Aggregate)
	assert.Equal(t, "Authors", q.Select[0].As)
	assert.True(t, q.Select[2].OrderBy)

	lits, err := q.Select[2].Where.Literals()
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Int(2012), ir.Int(2013)}, lits)

	require.NotNil(t, q.Register)
	assert.Equal(t, "AuthorsView", q.Register.As)
	assert.Equal(t, Pair{Left: "AuthorsView.publisher", Right: "Publishers.id"}, q.Register.Pairs[0])

	_, ok = doc.Query("missing")
	assert.False(t, ok)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := ParseBytes([]byte(`
queries:
  - name: q
    select:
      - {attr: Books.title, groupby: true}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "groupby")
}

func TestParse_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"no queries", `queries: []`, "queries"},
		{"bad version", "version: \"9\"\nqueries: [{name: q, select: [{attr: A.b}]}]", "version"},
		{"bad name", `queries: [{name: "two words", select: [{attr: A.b}]}]`, "queries[0].name"},
		{"duplicate name", `queries: [{name: q, select: [{attr: A.b}]}, {name: q, select: [{attr: A.b}]}]`, "queries[1].name"},
		{"no select", `queries: [{name: q, select: []}]`, "queries[0].select"},
		{"unqualified attr", `queries: [{name: q, select: [{attr: title}]}]`, "queries[0].select[0].attr"},
		{"bad alias", `queries: [{name: q, select: [{attr: A.b, as: "x y"}]}]`, "queries[0].select[0].as"},
		{"unknown op", `queries: [{name: q, select: [{attr: A.b, where: {op: regex}}]}]`, "queries[0].select[0].where.op"},
		{"op and template", `queries: [{name: q, select: [{attr: A.b, where: {op: eq, template: "{} = ?"}}]}]`, "queries[0].select[0].where"},
		{"wrong value count", `queries: [{name: q, select: [{attr: A.b, where: {op: between, values: [1]}}]}]`, "queries[0].select[0].where.values"},
		{"empty in", `queries: [{name: q, select: [{attr: A.b, where: {op: in}}]}]`, "queries[0].select[0].where"},
		{"template without expr", `queries: [{name: q, select: [{attr: A.b, where: {template: "x = ?"}}]}]`, "queries[0].select[0].where.template"},
		{"fractional value", `queries: [{name: q, select: [{attr: A.b, where: {op: eq, values: [1.5]}}]}]`, "queries[0].select[0].where"},
		{"register without pairs", `queries: [{name: q, select: [{attr: A.b}], register: {pairs: []}}]`, "queries[0].register.pairs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.doc))
			require.Error(t, err)
			require.True(t, IsParseError(err), "got %v", err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.path, pe.Path)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestDocument_MarshalRoundTrip(t *testing.T) {
	doc, err := ParseBytes([]byte(authorsDoc))
	require.NoError(t, err)

	data, err := doc.Marshal()
	require.NoError(t, err)

	again, err := ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}
