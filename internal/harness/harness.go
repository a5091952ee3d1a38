package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/joinery/internal/compiler"
	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/querysql"
)

// Run builds the scenario's query and checks the outcome.
//
// A build error is not a Run error: it is recorded on the result and
// compared with expect.error. Run fails only when the scenario itself cannot
// be set up (unreadable schema, unknown dialect, bad bind values).
//
// Execution flow:
// 1. Compile the schema
// 2. Compile queries in order until the build query
// 3. Bind scenario values
// 4. Compare with expect, then evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	s, err := compiler.LoadSchema(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	opts, err := dialectOptions(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	built, buildErr := build(scenario, func(q int) (*compiler.Compiled, error) {
		return compiler.CompileQuery(s, &scenario.Queries.Queries[q], opts...)
	})
	if buildErr != nil {
		result.ErrorCode = compiler.ErrorCode(buildErr)
		result.ErrorMessage = buildErr.Error()
		slog.Debug("scenario build failed", "scenario", scenario.Name, "code", result.ErrorCode)
	} else {
		if err := bind(built.Statement, scenario.Bind); err != nil {
			return nil, fmt.Errorf("failed to bind: %w", err)
		}
		if err := record(result, built); err != nil {
			return nil, err
		}
	}

	checkExpect(result, scenario.Expect)
	if buildErr == nil {
		actx := &AssertionContext{Schema: s, Ctx: context.Background()}
		for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
			result.AddError(msg)
		}
	}
	return result, nil
}

// dialectOptions resolves the scenario dialect over the document's one.
func dialectOptions(scenario *Scenario) ([]querysql.Option, error) {
	name := scenario.Dialect
	if name == "" {
		name = scenario.Queries.Dialect
	}
	if name == "" && scenario.Placeholder == "" {
		return nil, nil
	}

	d := querysql.Generic
	if name != "" {
		var err error
		if d, err = querysql.DialectByName(name); err != nil {
			return nil, err
		}
	}
	if scenario.Placeholder != "" {
		var err error
		if d, err = d.WithPlaceholder(scenario.Placeholder); err != nil {
			return nil, err
		}
	}
	return []querysql.Option{querysql.WithDialect(d)}, nil
}

// build compiles queries in document order and returns the build query.
func build(scenario *Scenario, compile func(int) (*compiler.Compiled, error)) (*compiler.Compiled, error) {
	for i, q := range scenario.Queries.Queries {
		c, err := compile(i)
		if err != nil {
			return nil, err
		}
		if q.Name == scenario.Build {
			return c, nil
		}
	}
	return nil, fmt.Errorf("query %q is not defined", scenario.Build)
}

func bind(st *querysql.Statement, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, err := ir.FromAny(values[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := st.Bind(name, v); err != nil {
			return err
		}
	}
	return nil
}

func record(result *Result, c *compiler.Compiled) error {
	st := c.Statement
	result.SQL = st.SQL
	result.Args = st.Args
	result.Unbound = st.Unbound()
	for name, attr := range st.Params {
		result.Params[name] = attr.String()
	}
	if c.View != nil {
		result.Source = c.View.Query()
	}

	fp, err := st.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}
	result.Fingerprint = fp
	return nil
}

func checkExpect(result *Result, expect Expect) {
	if expect.Error != "" {
		switch result.ErrorCode {
		case "":
			result.AddError(fmt.Sprintf("expected error %s, query built:\n  %s", expect.Error, result.SQL))
		case expect.Error:
		default:
			result.AddError(fmt.Sprintf("expected error %s, got %s: %s", expect.Error, result.ErrorCode, result.ErrorMessage))
		}
		return
	}

	if result.ErrorCode != "" {
		result.AddError(fmt.Sprintf("expected SQL, got error %s: %s", result.ErrorCode, result.ErrorMessage))
		return
	}
	if result.SQL != expect.SQL {
		result.AddError(fmt.Sprintf("SQL mismatch\n  expected: %s\n  actual:   %s", expect.SQL, result.SQL))
	}
	if expect.Source != "" && result.Source != expect.Source {
		result.AddError(fmt.Sprintf("source mismatch\n  expected: %s\n  actual:   %s", expect.Source, result.Source))
	}
	if expect.Args != nil {
		want, err := displayAll(expect.Args)
		if err != nil {
			result.AddError(fmt.Sprintf("expect.args: %v", err))
		} else if got := displayValues(result.Args); !slices.Equal(want, got) {
			result.AddError(fmt.Sprintf("args mismatch\n  expected: %v\n  actual:   %v", want, got))
		}
	}
	if expect.Unbound != nil && !slices.Equal(expect.Unbound, result.Unbound) {
		result.AddError(fmt.Sprintf("unbound mismatch\n  expected: %v\n  actual:   %v", expect.Unbound, result.Unbound))
	}
}

func displayAll(raw []any) ([]string, error) {
	out := make([]string, len(raw))
	for i, r := range raw {
		v, err := ir.FromAny(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = ir.Display(v)
	}
	return out, nil
}

func displayValues(values []ir.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = ir.Display(v)
	}
	return out
}
