package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/socgen/internal/ir"
)

// Snapshot returns the canonical JSON snapshot of a run: the scenario name,
// the step trace and, when a build succeeded, the peripheral region table.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make(ir.List, len(result.Trace))
	for i, e := range result.Trace {
		trace[i] = e.Value()
	}

	snap := ir.Object{
		"scenario_name": ir.String(name),
		"trace":         trace,
	}
	if result.Bundle != nil {
		regions := make(ir.List, len(result.Bundle.Regions))
		for i, r := range result.Bundle.Regions {
			regions[i] = r.Value()
		}
		snap["regions"] = regions
	}
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
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

// AssertGolden compares an existing result's snapshot against its golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
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
