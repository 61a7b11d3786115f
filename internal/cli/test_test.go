package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../../testdata/scenarios"

const passingScenario = `name: tiny_build
description: Minimal variant builds.
config: {name: tiny, variant: minimal}
steps:
  - op: new
  - op: set_reset_address
    addr: 0
  - op: build
`

func writeScenario(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestTestBundledScenarios(t *testing.T) {
	out, err := runCommand(t, "test", scenariosDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ standard_build")
	assert.Contains(t, out, "✓ plic_overlaps_clint")
	assert.Contains(t, out, "0 failed")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestJSON(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "test", scenariosDir, "--filter", "*reset*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)

	names := []string{resp.Data.Scenarios[0].Name, resp.Data.Scenarios[1].Name}
	assert.ElementsMatch(t, []string{"missing_reset_vector", "reset_vector_set_twice"}, names)
}

func TestTestMissingDir(t *testing.T) {
	_, err := runCommand(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestNoScenarios(t *testing.T) {
	out, err := runCommand(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestInvalidFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a", passingScenario)

	_, err := runCommand(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad", `name: bad
description: Expects an overlap that never happens.
config: {name: demo, variant: standard}
steps:
  - op: new
  - op: set_reset_address
    addr: 0x1000
  - op: build
    expect: REGION_OVERLAP
`)

	out, err := runCommand(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ bad")
	assert.Contains(t, out, "expected REGION_OVERLAP, got ok")
}

func TestTestLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken", "name: [")

	out, err := runCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "tiny_build", passingScenario)

	out, err := runCommand(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ tiny_build (golden updated)")

	golden := goldenFilePath(path)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"tiny_build"`)

	// A trailing newline in the golden file is tolerated.
	require.NoError(t, os.WriteFile(golden, append(data, '\n'), 0o644))
	_, err = runCommand(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"tiny_build","trace":[]}`), 0o644))
	out, err = runCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "x.golden"), goldenFilePath(filepath.Join("s", "x.yaml")))
}
