package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfigFile_ExplicitPath(t *testing.T) {
	tmpFile := writeFile(t, t.TempDir(), "custom.yaml", "dialect: mysql")

	path, err := findConfigFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, tmpFile, path)
}

func TestFindConfigFile_ExplicitPathNotFound(t *testing.T) {
	_, err := findConfigFile("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestFindConfigFile_AutoDiscovery(t *testing.T) {
	// Create directory structure with .git and joinery.yaml
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	configPath := writeFile(t, root, "joinery.yaml", "dialect: mysql")

	nested := filepath.Join(root, "deep", "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	path, err := findConfigFile("")
	require.NoError(t, err)

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedPath, _ := filepath.EvalSymlinks(configPath)
	actualPath, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, expectedPath, actualPath)
}

func TestFindConfigFile_PrefersYamlOverYml(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	yamlPath := writeFile(t, root, "joinery.yaml", "dialect: mysql")
	writeFile(t, root, "joinery.yml", "dialect: oracle")
	t.Chdir(root)

	path, err := findConfigFile("")
	require.NoError(t, err)

	expectedPath, _ := filepath.EvalSymlinks(yamlPath)
	actualPath, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, expectedPath, actualPath)
}

func TestFindConfigFile_StopsAtGitRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "joinery.yaml", "dialect: mysql")

	repo := filepath.Join(root, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))
	t.Chdir(repo)

	path, err := findConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	t.Chdir(root)

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "generic", cfg.Dialect)
	assert.Equal(t, "schema", cfg.SchemaDir)
	assert.Equal(t, "joinery.db", cfg.Catalog)
	assert.Equal(t, "scenarios", cfg.ScenariosDir)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "joinery.yaml", `
dialect: postgres
schema_dir: ./cue
catalog: statements.db
`)
	t.Setenv("JOINERY_CATALOG", "/tmp/override.db")

	cfg, path, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, path)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "./cue", cfg.SchemaDir)
	assert.Equal(t, "/tmp/override.db", cfg.Catalog, "environment beats the file")
	assert.Equal(t, "scenarios", cfg.ScenariosDir, "unset keys keep their defaults")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "joinery.yaml", "dialect: [unclosed")

	_, _, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestConfig_ResolvedDialect(t *testing.T) {
	cfg := &Config{Dialect: "postgres"}

	d, err := cfg.ResolvedDialect("", "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name)

	d, err = cfg.ResolvedDialect("mysql", "")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name, "flag beats config")

	cfg.Placeholder = "colon"
	d, err = cfg.ResolvedDialect("", "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name)

	_, err = cfg.ResolvedDialect("db2", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dialect")

	_, err = cfg.ResolvedDialect("", "percent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown placeholder format")
}

func TestConfig_ResolvedPaths(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "schema", cfg.ResolvedSchema(""))
	assert.Equal(t, "other.cue", cfg.ResolvedSchema("other.cue"))
	assert.Equal(t, "joinery.db", cfg.ResolvedCatalog(""))
	assert.Equal(t, "x.db", cfg.ResolvedCatalog("x.db"))
}
