package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	harnessScenarios = "../harness/testdata/scenarios"
	harnessGolden    = "../harness/testdata/golden"
)

const passingScenario = `name: simple_build
steps:
  - op: build
    archive: book
    as: doc
archives:
  book:
    - name: chapter2.txt
      text: "Two"
    - name: chapter1.txt
      text: "One"
assertions:
  - type: chapter_titles
    document: doc
    titles: ["chapter1", "chapter2"]
`

const failingScenario = `name: wrong_titles
steps:
  - op: build
    archive: book
    as: doc
archives:
  book:
    - name: chapter1.txt
      text: "One"
assertions:
  - type: chapter_titles
    document: doc
    titles: ["Prologue"]
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	stdout, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse[TestResult](t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandRunsHarnessScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", harnessScenarios, "--golden", harnessGolden)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ natural_sort_build")
	assert.Contains(t, stdout, "✓ revision_pipeline")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	stdout, _, err := execute(t, "test", harnessScenarios, "--golden", harnessGolden, "--filter", "title_*", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse[TestResult](t, stdout)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "title_conflict", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommandInvalidFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"simple_build.yaml": passingScenario})

	_, _, err := execute(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"simple_build.yaml": passingScenario,
		"wrong_titles.yaml": failingScenario,
	})

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✓ simple_build")
	assert.Contains(t, stdout, "✗ wrong_titles")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"wrong_titles.yaml": failingScenario})

	stdout, _, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[TestResult](t, stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\nsteps: []\n"})

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndMismatch(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"simple_build.yaml": passingScenario})
	goldenPath := filepath.Join(dir, "golden", "simple_build.golden")

	stdout, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ simple_build (golden updated)")
	require.FileExists(t, goldenPath)

	stdout, _, err = execute(t, "test", dir)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ simple_build")

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"simple_build","steps":[]}`), 0o644))
	stdout, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "golden file mismatch")
}
