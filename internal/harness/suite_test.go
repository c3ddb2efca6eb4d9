package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractScenarios_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("name: x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	files, err := ExtractScenarios([]string{dir}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, files)
}

func TestExtractScenarios_RelativeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), []byte("name: x"), 0644))

	files, err := ExtractScenarios([]string{"one.yaml"}, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "one.yaml")}, files)
}

func TestExtractScenarios_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := ExtractScenarios([]string{"missing.yaml"}, dir)
	require.Error(t, err)

	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing.yaml", nf.Path)
	assert.Equal(t, filepath.Join(dir, "missing.yaml"), nf.ResolvedPath)
}

func TestRunFiles_CollectsFailures(t *testing.T) {
	dir := t.TempDir()
	pass := writeScenario(t, dir, "pass.yaml", `
name: pass
description: "passes"
`+counterSchema+`
flow:
  - op: create
    record: a
`)
	fail := writeScenario(t, dir, "fail.yaml", `
name: fail
description: "fails"
`+counterSchema+`
flow:
  - op: create
    record: a
  - op: select
    record: a
    table: Counter
    column: Value
    expect: { value: 9 }
`)
	broken := writeScenario(t, dir, "broken.yaml", "name: [")

	suite, err := New().RunFiles([]string{pass, fail, broken})
	require.NoError(t, err)

	assert.Equal(t, 3, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 2, suite.Failed)
	require.Len(t, suite.Failures, 2)
	assert.Equal(t, "fail", suite.Failures[0].Scenario)
	assert.Contains(t, suite.Failures[0].Error, "expected 9, got 0")
	assert.Equal(t, broken, suite.Failures[1].Path)
	assert.Contains(t, suite.Failures[1].Error, "failed to load scenario")

	require.Len(t, suite.Results, 3)
	assert.NotNil(t, suite.Results[1].Result)
	assert.Nil(t, suite.Results[2].Result)
}

func TestRunFiles_Empty(t *testing.T) {
	_, err := New().RunFiles(nil)
	require.Error(t, err)
}
