package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/joinery/internal/queryir"
)

// Scenario defines one conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is a CUE file or directory, relative to the scenario file.
	Schema string `yaml:"schema"`

	// Queries is the query document, inline.
	Queries queryir.Document `yaml:"queries"`

	// Build names the query whose statement is checked.
	Build string `yaml:"build"`

	// Dialect overrides the document's dialect.
	Dialect string `yaml:"dialect,omitempty"`

	// Placeholder overrides the dialect's placeholder format.
	Placeholder string `yaml:"placeholder,omitempty"`

	// Bind supplies values for unbound placeholders, by name (p1, p2, ...).
	Bind map[string]any `yaml:"bind,omitempty"`

	// Expect is the required outcome of the build.
	Expect Expect `yaml:"expect"`

	// Assertions are extra checks on a successful build.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect holds exactly one of SQL or Error.
type Expect struct {
	// SQL is the exact statement text.
	SQL string `yaml:"sql,omitempty"`

	// Source is the nested SQL of the registered view, when build registers one.
	Source string `yaml:"source,omitempty"`

	// Args are the expected placeholder values; null matches both NULL and
	// an unbound slot, use Unbound to tell them apart.
	Args []any `yaml:"args,omitempty"`

	// Unbound lists placeholders expected to remain without a value.
	Unbound []string `yaml:"unbound,omitempty"`

	// Error is the expected error code, e.g. VALIDATION_AGGREGATE_GROUP_BY.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the built statement.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is the fragment for sql_contains and sql_count.
	Text string `yaml:"text,omitempty"`

	// Texts are the fragments for sql_order.
	Texts []string `yaml:"texts,omitempty"`

	// Count is the expected number of occurrences for sql_count.
	Count int `yaml:"count,omitempty"`

	// Params maps placeholder names to "View.attr" for params.
	Params map[string]string `yaml:"params,omitempty"`
}

// Assertion type constants.
const (
	AssertSQLContains = "sql_contains"
	AssertSQLOrder    = "sql_order"
	AssertSQLCount    = "sql_count"
	AssertParams      = "params"
	AssertPrepares    = "prepares"
)

// LoadScenario reads and parses a scenario YAML file, resolving the schema
// path against the file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema not found: %s", s.Schema)
	}

	if err := s.Queries.Check(); err != nil {
		return fmt.Errorf("queries: %w", err)
	}
	if s.Build == "" {
		return fmt.Errorf("build is required")
	}
	if _, ok := s.Queries.Query(s.Build); !ok {
		return fmt.Errorf("build: query %q is not defined", s.Build)
	}

	switch {
	case s.Expect.SQL == "" && s.Expect.Error == "":
		return fmt.Errorf("expect: one of sql or error is required")
	case s.Expect.SQL != "" && s.Expect.Error != "":
		return fmt.Errorf("expect: sql and error are mutually exclusive")
	case s.Expect.Error != "" && len(s.Assertions) > 0:
		return fmt.Errorf("assertions: not evaluated when an error is expected")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSQLContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for sql_contains", index)
		}
	case AssertSQLOrder:
		if len(a.Texts) < 2 {
			return fmt.Errorf("assertions[%d]: at least two texts are required for sql_order", index)
		}
	case AssertSQLCount:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for sql_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for sql_count", index)
		}
	case AssertParams:
		if len(a.Params) == 0 {
			return fmt.Errorf("assertions[%d]: params is required for params", index)
		}
	case AssertPrepares:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
