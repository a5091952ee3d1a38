package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/querysql"
)

// marshalArgs converts statement arguments to canonical JSON TEXT.
// Unbound slots are stored as null; the unbound column tells them apart.
func marshalArgs(args []ir.Value) (string, error) {
	data, err := ir.MarshalCanonical(ir.List(args))
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// marshalNames converts a list of names to canonical JSON TEXT.
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := ir.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// marshalParams records which attribute each placeholder filters.
func marshalParams(params map[string]*querysql.SelectAttribute) (string, error) {
	obj := make(ir.Object, len(params))
	for name, attr := range params {
		obj[name] = ir.String(attr.String())
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses canonical JSON TEXT back to values. Numbers are
// decoded through json.Number to avoid float64 precision loss for values
// beyond 2^53. Slots listed in unbound come back as nil.
func unmarshalArgs(data string, names []string, unbound []string) ([]ir.Value, error) {
	var raw []any
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}

	open := make(map[string]bool, len(unbound))
	for _, n := range unbound {
		open[n] = true
	}

	out := make([]ir.Value, len(raw))
	for i, r := range raw {
		if i < len(names) && open[names[i]] {
			continue
		}
		v, err := ir.FromAny(r)
		if err != nil {
			return nil, fmt.Errorf("unmarshal args[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func unmarshalNames(data string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// unmarshalParams returns placeholder -> "View.attr" and the placeholder
// names in numeric order (p1, p2, ..., p10).
func unmarshalParams(data string) (map[string]string, []string, error) {
	params := make(map[string]string)
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil, nil, fmt.Errorf("unmarshal params: %w", err)
	}
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	return params, names, nil
}
