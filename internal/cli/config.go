package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/joinery/internal/querysql"
)

const (
	maxWalkDepth = 25
)

// Config represents the joinery configuration from joinery.yaml.
type Config struct {
	// Dialect is the default SQL dialect for build and check.
	Dialect string `mapstructure:"dialect"`

	// Placeholder overrides the dialect's placeholder format when set.
	Placeholder string `mapstructure:"placeholder"`

	// SchemaDir is the CUE schema file or directory.
	SchemaDir string `mapstructure:"schema_dir"`

	// Catalog is the SQLite statement catalog path.
	Catalog string `mapstructure:"catalog"`

	// ScenariosDir holds conformance scenarios for the test command.
	ScenariosDir string `mapstructure:"scenarios_dir"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("JOINERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "generic")
	v.SetDefault("placeholder", "")
	v.SetDefault("schema_dir", "schema")
	v.SetDefault("catalog", "joinery.db")
	v.SetDefault("scenarios_dir", "scenarios")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for joinery.yaml or joinery.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"joinery.yaml", "joinery.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break // Stop at repo root
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// ResolvedDialect returns the dialect for a command, with the command's
// flags taking precedence over the configured values.
func (c *Config) ResolvedDialect(dialectFlag, placeholderFlag string) (querysql.Dialect, error) {
	name := c.Dialect
	if dialectFlag != "" {
		name = dialectFlag
	}
	d, err := querysql.DialectByName(name)
	if err != nil {
		return querysql.Dialect{}, err
	}

	placeholder := c.Placeholder
	if placeholderFlag != "" {
		placeholder = placeholderFlag
	}
	if placeholder == "" {
		return d, nil
	}
	return d.WithPlaceholder(placeholder)
}

// ResolvedSchema returns the schema path, flag first.
func (c *Config) ResolvedSchema(schemaFlag string) string {
	if schemaFlag != "" {
		return schemaFlag
	}
	return c.SchemaDir
}

// ResolvedCatalog returns the catalog path, flag first.
func (c *Config) ResolvedCatalog(catalogFlag string) string {
	if catalogFlag != "" {
		return catalogFlag
	}
	return c.Catalog
}
