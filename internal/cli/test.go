package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden snapshots from the current results
	Filter string // glob over scenario file names, without extension
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult is the outcome of a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test [scenarios-dir]",
		Short: "Run conformance scenarios",
		Long: `Run the YAML conformance scenarios in a directory.

Each scenario builds one query of an inline document against a CUE schema
and checks the SQL, arguments and assertions. A scenario with a golden file
in <scenarios-dir>/golden/<name>.golden must also match it.

The directory defaults to scenarios_dir from the config.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - The directory is missing or the filter is malformed

Examples:
  joinery test ./scenarios
  joinery test ./scenarios --filter "nested_*"
  joinery test ./scenarios --update
  joinery test ./scenarios --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.config().ScenariosDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runTests(opts, dir, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	p := opts.printer(cmd)
	result := TestResult{Scenarios: []ScenarioResult{}}
	if len(files) == 0 && !p.JSON {
		p.Textf("No scenarios found.\n")
		return nil
	}

	runner := &scenarioRunner{update: opts.Update, p: p}
	for _, file := range files {
		result.add(runner.run(file))
	}
	return reportTests(p, result)
}

// findScenarioFiles lists the scenario files under dir whose base name,
// minus extension, matches filter. An empty filter matches everything.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	all, err := harness.FindScenarios(dir)
	if err != nil || filter == "" {
		return all, err
	}

	var files []string
	for _, path := range all {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		ok, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			files = append(files, path)
		}
	}
	return files, nil
}

// scenarioRunner runs scenario files one at a time, printing a line per
// scenario in text mode.
type scenarioRunner struct {
	update bool
	p      *Printer
}

func (r *scenarioRunner) run(file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return r.fail(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}
	r.p.Notef("Running %s", scenario.Name)

	result, err := harness.Run(scenario)
	if err != nil {
		return r.fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	golden := goldenFile(filepath.Join(filepath.Dir(file), "golden", scenario.Name+".golden"))
	if r.update {
		if err := golden.write(scenario.Name, result); err != nil {
			return r.fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if !result.Pass {
			return r.fail(scenario.Name, result.Errors...)
		}
		return r.pass(scenario.Name, " (golden updated)")
	}

	match, err := golden.matches(scenario.Name, result)
	switch {
	case err != nil:
		return r.fail(scenario.Name, fmt.Sprintf("golden comparison failed: %v", err))
	case !match:
		result.AddError("snapshot does not match golden file (run with --update to regenerate)")
	}

	if !result.Pass {
		return r.fail(scenario.Name, result.Errors...)
	}
	return r.pass(scenario.Name, "")
}

func (r *scenarioRunner) pass(name, note string) ScenarioResult {
	if !r.p.JSON {
		r.p.Textf("✓ %s%s\n", name, note)
	}
	return ScenarioResult{Name: name, Pass: true}
}

func (r *scenarioRunner) fail(name string, errs ...string) ScenarioResult {
	if !r.p.JSON {
		r.p.Textf("✗ %s\n", name)
		for _, e := range errs {
			r.p.Textf("  %s\n", e)
		}
	}
	return ScenarioResult{Name: name, Errors: errs}
}

// goldenFile is the snapshot path for one scenario.
type goldenFile string

func (g goldenFile) write(name string, result *harness.Result) error {
	data, err := harness.SnapshotJSON(name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(string(g)), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(string(g), data, 0644)
}

// matches reports whether the stored snapshot equals result. A scenario
// without a golden file always matches.
func (g goldenFile) matches(name string, result *harness.Result) (bool, error) {
	want, err := os.ReadFile(string(g))
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}

	got, err := harness.SnapshotJSON(name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal current snapshot: %w", err)
	}
	return bytes.Equal(bytes.TrimSpace(want), got), nil
}

func reportTests(p *Printer, result TestResult) error {
	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if p.JSON {
		env := Envelope{Status: "ok", Data: result}
		if failure != nil {
			env.Status = "error"
			env.Error = &Problem{Code: ErrCodeTestFailed, Message: failure.Error()}
		}
		if err := p.Emit(env); err != nil {
			return err
		}
		return failure
	}

	p.Textf("\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure != nil {
		return failure
	}
	p.Textf("✓ All scenarios passed\n")
	return nil
}
