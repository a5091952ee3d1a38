package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/joinery/internal/ir"
)

// Snapshot is the golden-file view of a result. The fingerprint is left out
// so snapshots survive hashing changes that keep the SQL stable.
type Snapshot struct {
	ScenarioName string
	SQL          string
	Source       string
	Args         []ir.Value
	Unbound      []string
	Params       map[string]string
	Error        string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization; empty fields are omitted.
func (s *Snapshot) toCanonicalMap() map[string]any {
	out := map[string]any{
		"scenario_name": s.ScenarioName,
	}
	if s.Error != "" {
		out["error"] = s.Error
		return out
	}

	out["sql"] = s.SQL
	out["args"] = ir.List(s.Args)
	if s.Source != "" {
		out["source"] = s.Source
	}
	if len(s.Unbound) > 0 {
		out["unbound"] = ir.List(ir.Strings(s.Unbound...))
	}
	params := make(ir.Object, len(s.Params))
	for name, attr := range s.Params {
		params[name] = ir.String(attr)
	}
	out["params"] = params
	return out
}

func snapshotOf(name string, result *Result) *Snapshot {
	return &Snapshot{
		ScenarioName: name,
		SQL:          result.SQL,
		Source:       result.Source,
		Args:         result.Args,
		Unbound:      result.Unbound,
		Params:       result.Params,
		Error:        result.ErrorCode,
	}
}

// SnapshotJSON renders the canonical golden-file bytes for a result.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(snapshotOf(name, result).toCanonicalMap())
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run. Test failure (via goldie) occurs
// if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
