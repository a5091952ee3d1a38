package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_LibraryPrepares(t *testing.T) {
	for _, dialect := range []string{"generic", "postgres", "oracle", "sqlserver"} {
		t.Run(dialect, func(t *testing.T) {
			out, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}), libraryDoc,
				"--schema", librarySchema, "--dialect", dialect)
			require.NoError(t, err)
			assert.Contains(t, out, "✓ titles")
			assert.Contains(t, out, "✓ authors_per_publisher")
			assert.Contains(t, out, "3 passed, 0 failed")
		})
	}
}

func TestCheck_UndeclaredColumnFails(t *testing.T) {
	dir := t.TempDir()
	// The template references a column the schema never declares.
	doc := writeFile(t, dir, "raw.yaml", `
queries:
  - name: raw
    select:
      - attr: Books.title
        where: {template: "{} = isbn"}
`)

	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "json"}), doc, "--schema", librarySchema)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeCheckFailed)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  *Problem    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Queries, 1)
	assert.False(t, resp.Data.Queries[0].OK)
	assert.Contains(t, resp.Data.Queries[0].Error, "isbn")
}

func TestCheck_SelectedQueries(t *testing.T) {
	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}), libraryDoc, "--schema", librarySchema, "titles")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed")
	assert.NotContains(t, out, "authors")
}
