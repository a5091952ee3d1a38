package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/testutil"
)

// writeScenario writes the library schema and a scenario next to it.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.cue"), []byte(testutil.LibraryCUE), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const titlesScenario = `
name: titles
description: "Titles with publishers"
schema: library.cue
queries:
  queries:
    - name: titles
      select:
        - attr: Books.title
        - attr: Publishers.name
build: titles
expect:
  sql: "SELECT A.title, B.name FROM books A join publishers B on A.publisher = B.id"
assertions:
  - type: sql_contains
    text: "join publishers B"
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, titlesScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "titles", scenario.Name)
	assert.Equal(t, "Titles with publishers", scenario.Description)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "library.cue"), scenario.Schema)
	require.Len(t, scenario.Queries.Queries, 1)
	assert.Equal(t, "Books.title", scenario.Queries.Queries[0].Select[0].Attr)
	assert.Equal(t, "titles", scenario.Build)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertSQLContains, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, titlesScenario+"flow_token: x\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldInQueries(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "typo in a field"
schema: library.cue
queries:
  queries:
    - name: q
      select:
        - {attr: Books.title, groupby: true}
build: q
expect:
  sql: "x"
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "groupby")
}

func TestLoadScenario_Invalid(t *testing.T) {
	base := func(extra string) string {
		return `
name: n
description: "d"
schema: library.cue
queries:
  queries:
    - name: q
      select: [{attr: Books.title}]
` + extra
	}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\nschema: library.cue\n",
			want:    "name is required",
		},
		{
			name:    "missing schema file",
			content: "name: n\ndescription: d\nschema: missing.cue\n",
			want:    "schema not found",
		},
		{
			name:    "no queries",
			content: "name: n\ndescription: d\nschema: library.cue\nbuild: q\nexpect: {sql: x}\n",
			want:    "at least one query",
		},
		{
			name:    "build not defined",
			content: base("build: other\nexpect: {sql: x}\n"),
			want:    `query "other" is not defined`,
		},
		{
			name:    "missing build",
			content: base("expect: {sql: x}\n"),
			want:    "build is required",
		},
		{
			name:    "no expectation",
			content: base("build: q\n"),
			want:    "one of sql or error is required",
		},
		{
			name:    "both expectations",
			content: base("build: q\nexpect: {sql: x, error: JOIN_NO_PATH}\n"),
			want:    "mutually exclusive",
		},
		{
			name:    "assertions with expected error",
			content: base("build: q\nexpect: {error: JOIN_NO_PATH}\nassertions: [{type: prepares}]\n"),
			want:    "not evaluated",
		},
		{
			name:    "unknown assertion",
			content: base("build: q\nexpect: {sql: x}\nassertions: [{type: trace_contains}]\n"),
			want:    `unknown assertion type "trace_contains"`,
		},
		{
			name:    "sql_order needs two texts",
			content: base("build: q\nexpect: {sql: x}\nassertions: [{type: sql_order, texts: [SELECT]}]\n"),
			want:    "at least two texts",
		},
		{
			name:    "sql_count negative",
			content: base("build: q\nexpect: {sql: x}\nassertions: [{type: sql_count, text: A, count: -1}]\n"),
			want:    "non-negative",
		},
		{
			name:    "params empty",
			content: base("build: q\nexpect: {sql: x}\nassertions: [{type: params}]\n"),
			want:    "params is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
