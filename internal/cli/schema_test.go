package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommand_Text(t *testing.T) {
	out, _, err := execute(t, "schema", tablesDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Loaded 2 table(s), 5 column(s)")
	assert.Contains(t, out, "Fingerprint: ")
	assert.Contains(t, out, "  Probability      float   unique\n")
	assert.Contains(t, out, "  Chance           ref     unique       owned\n")
	assert.Contains(t, out, "  Targets          ref     intermediate reference\n")
	assert.Contains(t, out, "  Label            string  nullable     property Name\n")
}

func TestSchemaCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "schema", tablesDir)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   SchemaSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Fingerprint, 64)
	require.Len(t, resp.Data.Tables, 2)

	effect := resp.Data.Tables[1]
	assert.Equal(t, "Effect", effect.Name)
	require.Len(t, effect.Columns, 3)
	assert.Equal(t, ColumnSummary{Name: "Label", Type: "string", Cardinality: "nullable", Property: "Name"}, effect.Columns[2])
}

func TestSchemaCommand_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")

	out, _, err := execute(t, "schema", tablesDir, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical schema to "+path)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(first), " ")
	assert.NotContains(t, string(first), "\n")

	_, _, err = execute(t, "schema", tablesDir, "-o", path)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSchemaCommand_FingerprintMatchesRegistry(t *testing.T) {
	loaded, err := LoadTables(tablesDir)
	require.NoError(t, err)

	out, _, err := execute(t, "--format", "json", "schema", tablesDir)
	require.NoError(t, err)
	assert.Contains(t, out, loaded.Registry.Fingerprint())
}

func TestSchemaCommand_Errors(t *testing.T) {
	bad := writeTables(t, "bad.cue", `package tables

table: T: columns: C: {type: "decimal", cardinality: "unique"}
`)

	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "schema", bad)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E103]")
		assert.Contains(t, out, "bad.cue:")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "--format", "json", "schema", bad)
		require.Error(t, err)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeInvalidType, resp.Error.Code)
	})

	t.Run("missing directory", func(t *testing.T) {
		out, _, err := execute(t, "schema", filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")
	})

	t.Run("no arguments", func(t *testing.T) {
		_, _, err := execute(t, "schema")
		require.Error(t, err)
	})
}
