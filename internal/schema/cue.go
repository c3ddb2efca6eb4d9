package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ontostore/internal/ir"
)

// CompileError is a CUE table definition error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir loads every table declared under the top-level "table" struct of
// the CUE package in dir.
//
// Tables are returned in declaration order; columns follow CUE field order.
// Definitions are compiled but not registered, see RegisterAll.
func LoadDir(dir string) ([]Table, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("load %s: no CUE instances", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, formatCUEError(inst.Err))
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("build %s: %w", dir, formatCUEError(err))
	}
	return compileTables(value)
}

// CompileSource compiles table definitions from a single CUE source.
// filename is used only for error positions.
func CompileSource(filename, src string) ([]Table, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileTables(value)
}

// RegisterAll registers each table, stopping at the first failure.
func RegisterAll(reg *Registry, tables []Table) error {
	for _, t := range tables {
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", t.Name, err)
		}
	}
	return nil
}

func compileTables(value cue.Value) ([]Table, error) {
	tablesVal := value.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "table",
			Message: "no tables declared",
			Pos:     value.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var tables []Table
	for iter.Next() {
		t, err := CompileTable(iter.Value())
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// CompileTable parses a CUE value into a Table definition.
//
// The CUE value should be the table struct itself, e.g.:
//
//	v := ctx.CompileString(`table: Effect: { columns: { ... } }`)
//	def, err := CompileTable(v.LookupPath(cue.ParsePath("table.Effect")))
//
// The returned definition is syntactically complete; semantic checks
// (duplicate columns, link on a non-ref column) happen at Register.
func CompileTable(v cue.Value) (Table, error) {
	var def Table
	if err := v.Err(); err != nil {
		return def, formatCUEError(err)
	}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}

	ownerVal := v.LookupPath(cue.ParsePath("owner"))
	if ownerVal.Exists() {
		owner, err := ownerVal.String()
		if err != nil {
			return def, formatCUEError(err)
		}
		def.Owner = owner
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return def, &CompileError{
			Field:   "columns",
			Message: fmt.Sprintf("table %s declares no columns", def.Name),
			Pos:     v.Pos(),
		}
	}

	iter, err := colsVal.Fields()
	if err != nil {
		return def, formatCUEError(err)
	}
	for iter.Next() {
		col, err := compileColumn(iter.Label(), iter.Value())
		if err != nil {
			return def, err
		}
		def.Columns = append(def.Columns, col)
	}
	if len(def.Columns) == 0 {
		return def, &CompileError{
			Field:   "columns",
			Message: fmt.Sprintf("table %s declares no columns", def.Name),
			Pos:     colsVal.Pos(),
		}
	}

	return def, nil
}

func compileColumn(name string, v cue.Value) (Column, error) {
	col := Column{Name: name}

	typeName, err := requiredString(v, "type")
	if err != nil {
		return col, err
	}
	col.Type, err = ir.ParseValueType(typeName)
	if err != nil {
		return col, &CompileError{Field: "type", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("type")).Pos()}
	}

	card, err := requiredString(v, "cardinality")
	if err != nil {
		return col, err
	}
	col.Cardinality, err = ParseCardinality(card)
	if err != nil {
		return col, &CompileError{Field: "cardinality", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("cardinality")).Pos()}
	}

	link, err := optionalString(v, "link")
	if err != nil {
		return col, err
	}
	col.Link, err = ParseLink(link)
	if err != nil {
		return col, &CompileError{Field: "link", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("link")).Pos()}
	}

	col.Property, err = optionalString(v, "property")
	if err != nil {
		return col, err
	}

	return col, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
