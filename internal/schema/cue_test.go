package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontostore/internal/ir"
)

func TestCompileTableBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		table: Effect: {
			owner: "EffectNode"
			columns: {
				Chance: {type: "ref", cardinality: "unique", link: "owned"}
				Targets: {type: "ref", cardinality: "intermediate"}
				Label: {type: "string", cardinality: "nullable", property: "Name"}
			}
		}
	`)
	require.NoError(t, v.Err())

	def, err := CompileTable(v.LookupPath(cue.ParsePath("table.Effect")))
	require.NoError(t, err)

	assert.Equal(t, "Effect", def.Name)
	assert.Equal(t, "EffectNode", def.Owner)
	require.Len(t, def.Columns, 3)
	assert.Equal(t, "Chance", def.Columns[0].Name, "columns follow declaration order")
	assert.Equal(t, ir.TypeRef, def.Columns[0].Type)
	assert.Equal(t, LinkOwned, def.Columns[0].Link)
	assert.Equal(t, Intermediate, def.Columns[1].Cardinality)
	assert.Equal(t, "Name", def.Columns[2].Property)
}

func TestCompileTableMissingColumns(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`table: Empty: { owner: "Empty" }`)
	require.NoError(t, v.Err())

	_, err := CompileTable(v.LookupPath(cue.ParsePath("table.Empty")))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "columns", ce.Field)
}

func TestCompileTableInvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing type", `table: T: columns: A: {cardinality: "unique"}`, "type"},
		{"bad type", `table: T: columns: A: {type: "decimal", cardinality: "unique"}`, "type"},
		{"missing cardinality", `table: T: columns: A: {type: "int"}`, "cardinality"},
		{"bad cardinality", `table: T: columns: A: {type: "int", cardinality: "many"}`, "cardinality"},
		{"bad link", `table: T: columns: A: {type: "ref", cardinality: "unique", link: "strong"}`, "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource("t.cue", tt.src)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileSourceSyntaxErrorHasPosition(t *testing.T) {
	_, err := CompileSource("broken.cue", "table: T: {")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestCompileSourceNoTables(t *testing.T) {
	_, err := CompileSource("t.cue", `other: 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tables declared")
}

func TestLoadDir(t *testing.T) {
	tables, err := LoadDir("testdata/tables")
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, "Effect", tables[0].Name)
	assert.Equal(t, "Chance", tables[1].Name)

	reg := NewRegistry()
	require.NoError(t, RegisterAll(reg, tables))

	col, err := reg.Column("Effect", "Chance")
	require.NoError(t, err)
	assert.Equal(t, LinkOwned, col.Link)

	tbl, ok := reg.Lookup("Chance")
	require.True(t, ok)
	assert.Equal(t, "Chance", tbl.Owner)
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	empty := t.TempDir()
	_, err = LoadDir(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")

	file := filepath.Join(t.TempDir(), "x.cue")
	require.NoError(t, os.WriteFile(file, []byte("package x"), 0644))
	_, err = LoadDir(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestRegisterAllStopsAtFirstFailure(t *testing.T) {
	reg := NewRegistry()
	err := RegisterAll(reg, []Table{
		{Name: "Ok", Columns: []Column{{Name: "V", Type: ir.TypeInt, Cardinality: Unique}}},
		{Name: "Bad", Columns: []Column{{Name: "V", Type: ir.TypeInt, Cardinality: Unique, Link: LinkOwned}}},
		{Name: "Never", Columns: []Column{{Name: "V", Type: ir.TypeInt, Cardinality: Unique}}},
	})
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeInvalidDefinition))
	assert.Contains(t, err.Error(), "register Bad")

	_, ok := reg.Lookup("Never")
	assert.False(t, ok)
}
