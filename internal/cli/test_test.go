package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyScenario writes a scenario into dir with its schema path rewritten to
// the shared library schema.
func copyScenario(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(scenariosDir, name+".yaml"))
	require.NoError(t, err)
	content := strings.Replace(string(data), "schema: ../schema/library.cue", "schema: "+absPath(t, librarySchema), 1)
	return writeFile(t, dir, name+".yaml", content)
}

func TestTestCommand_AllScenariosPass(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ books_with_publishers")
	assert.Contains(t, out, "✓ nested_authors_view")
	assert.Contains(t, out, "0 failed")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir, "--filter", "books_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "books_with_publishers", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	path := copyScenario(t, dir, "books_with_publishers")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	broken := strings.Replace(string(data), "B.id\"", "B.name\"", 1)
	require.NoError(t, os.WriteFile(path, []byte(broken), 0644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ books_with_publishers")
	assert.Contains(t, out, "SQL mismatch")
}

func TestTestCommand_GoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "books_with_publishers")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	goldenPath := filepath.Join(dir, "golden", "books_with_publishers.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"books_with_publishers"`)

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"stale"}`), 0644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestFindScenarioFiles_Filter(t *testing.T) {
	files, err := findScenarioFiles(scenariosDir, "*_view*")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "nested_authors_view.yaml", filepath.Base(files[0]))
	assert.Equal(t, "registered_view_source.yaml", filepath.Base(files[1]))

	_, err = findScenarioFiles(scenariosDir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
