package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/schema"
	"github.com/roach88/joinery/internal/testutil"
)

const authorsSource = "SELECT COUNT( A.author ) as Authors, B.category_name, A.year, A.publisher " +
	"FROM books A join categories B on A.category = B.id " +
	"GROUP BY B.category_name, A.year, A.publisher ORDER BY A.year"

func authorsView(t *testing.T, lib *testutil.Library, opts ...ViewOption) *QueryView {
	t.Helper()
	b := authorsByCategory(t, lib, &SelectOptions{GroupBy: true})
	qv, err := b.CreateView("AuthorsView", opts...)
	require.NoError(t, err)
	return qv
}

func TestCreateView_Attributes(t *testing.T) {
	lib := testutil.NewLibrary(t)
	qv := authorsView(t, lib)

	assert.Equal(t, "AuthorsView", qv.Name())
	assert.Equal(t, "("+authorsSource+")", qv.Source())
	assert.Equal(t, authorsSource, qv.Query())
	assert.False(t, qv.IsTable())
	assert.Equal(t, []string{"Authors", "category_name", "year", "publisher"}, qv.AttributeNames())

	_, err := qv.Attribute("author")
	require.Error(t, err)
	var lookup *schema.AttributeLookupError
	assert.ErrorAs(t, err, &lookup)

	out, err := qv.Output("Authors")
	require.NoError(t, err)
	assert.Equal(t, "Books.author", out.String())
}

func TestCreateView_HiddenAttributesAreNotExposed(t *testing.T) {
	lib := testutil.NewLibrary(t)
	b := authorsByCategory(t, lib, &SelectOptions{Hidden: true, GroupBy: true})

	qv, err := b.CreateView("AuthorsView")
	require.NoError(t, err)

	_, err = qv.Attribute("publisher")
	assert.Error(t, err)
	_, err = qv.Output("publisher")
	assert.Error(t, err)
}

func TestCreateView_WithConditions(t *testing.T) {
	lib := testutil.NewLibrary(t)
	qv := authorsView(t, lib, WithConditions())
	assert.Contains(t, qv.Source(), "WHERE A.year IN (2012, 2013)")
}

func TestCreateView_DuplicateOutputName(t *testing.T) {
	lib := testutil.NewLibrary(t)
	b := NewBuilder(lib.Schema)
	require.NoError(t, b.Select(
		sel(t, lib.Attr(t, "Publishers.name"), SelectOptions{}),
		sel(t, lib.Attr(t, "Books.title"), SelectOptions{As: "name"}),
	))

	_, err := b.CreateView("Dup")
	require.Error(t, err)
	assert.True(t, IsValidationError(err, ErrCodeDuplicateOutput))
}

func TestCreateView_NestedInOuterQuery(t *testing.T) {
	lib := testutil.NewLibrary(t)
	qv := authorsView(t, lib)

	require.NoError(t, lib.Schema.AddView(qv.View, schema.MustJoin(
		qv.MustAttribute("publisher"), lib.Publishers.MustAttribute("id"))))

	outer := NewBuilder(lib.Schema)
	require.NoError(t, outer.Select(
		sel(t, qv.MustAttribute("Authors"), SelectOptions{}),
		sel(t, lib.Attr(t, "Publishers.name"), SelectOptions{}),
	))

	st, err := outer.Prepare()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT A.Authors, B.name FROM ("+authorsSource+") A join publishers B on A.publisher = B.id",
		st.SQL)
}

func TestCreateView_InnerAliasesAreIndependent(t *testing.T) {
	lib := testutil.NewLibrary(t)
	qv := authorsView(t, lib)
	require.NoError(t, lib.Schema.AddView(qv.View, schema.MustJoin(
		qv.MustAttribute("publisher"), lib.Publishers.MustAttribute("id"))))

	outer := NewBuilder(lib.Schema, WithDialect(Postgres))
	require.NoError(t, outer.Select(
		sel(t, lib.Attr(t, "Publishers.name"), SelectOptions{Condition: Eq(ir.String("Acme"))}),
		sel(t, qv.MustAttribute("Authors"), SelectOptions{}),
	))

	st, err := outer.Prepare()
	require.NoError(t, err)
	// Outer aliases restart at A even though the nested text also uses A and B.
	assert.Equal(t,
		"SELECT A.name, B.Authors FROM publishers A join ("+authorsSource+") B on A.id = B.publisher WHERE A.name = $1",
		st.SQL)
	assert.Equal(t, []ir.Value{ir.String("Acme")}, st.Args)
}
