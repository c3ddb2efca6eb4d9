package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

// Scenario defines a store scenario.
// A scenario registers tables, executes a flow of store operations and
// asserts on the resulting notification trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tables lists directories of CUE table definitions to load.
	// Paths are relative to the scenario file location.
	Tables []string `yaml:"tables,omitempty"`

	// Schema declares tables inline.
	Schema []TableDef `yaml:"schema,omitempty"`

	// Flow contains the operations to execute, in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: notified, notify_order, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// TableDef is an inline table definition.
type TableDef struct {
	Name    string      `yaml:"name"`
	Owner   string      `yaml:"owner,omitempty"`
	Columns []ColumnDef `yaml:"columns"`
}

// ColumnDef is an inline column definition.
type ColumnDef struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Cardinality string `yaml:"cardinality"`
	Link        string `yaml:"link,omitempty"`
	Property    string `yaml:"property,omitempty"`
}

// Table converts the inline definition into a schema.Table.
func (d TableDef) Table() (schema.Table, error) {
	t := schema.Table{Name: d.Name, Owner: d.Owner}
	for _, c := range d.Columns {
		typ, err := ir.ParseValueType(c.Type)
		if err != nil {
			return schema.Table{}, fmt.Errorf("%s.%s: %w", d.Name, c.Name, err)
		}
		card, err := schema.ParseCardinality(c.Cardinality)
		if err != nil {
			return schema.Table{}, fmt.Errorf("%s.%s: %w", d.Name, c.Name, err)
		}
		link, err := schema.ParseLink(c.Link)
		if err != nil {
			return schema.Table{}, fmt.Errorf("%s.%s: %w", d.Name, c.Name, err)
		}
		t.Columns = append(t.Columns, schema.Column{
			Name:        c.Name,
			Type:        typ,
			Cardinality: card,
			Link:        link,
			Property:    c.Property,
		})
	}
	return t, nil
}

// Step is one flow operation.
//
// Op selects the operation; the remaining fields are its operands. Records
// are named by alias: the alias given to a create or load step is used by
// every later step to refer to that record.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Record is the record alias.
	Record string `yaml:"record,omitempty"`

	// Name is the secondary record name for create.
	Name string `yaml:"name,omitempty"`

	// ID is the explicit record id for load.
	ID uint32 `yaml:"id,omitempty"`

	Table  string `yaml:"table,omitempty"`
	Column string `yaml:"column,omitempty"`

	// Value is the operand for update, insert, remove and contains.
	// For ref columns a string names a record alias.
	Value any `yaml:"value,omitempty"`

	// Null writes Null instead of Value.
	Null bool `yaml:"is_null,omitempty"`

	// Property filters a watch subscription. Empty watches every property.
	Property string `yaml:"property,omitempty"`

	// Steps are the nested operations of a change or query scope.
	Steps []Step `yaml:"steps,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Result is the expected store.Result name
	// (success, already_exists, failed).
	Result string `yaml:"result,omitempty"`

	// Panic is the expected schema error code (e.g. TYPE_MISMATCH).
	Panic string `yaml:"panic,omitempty"`

	// Value is the expected select result.
	Value any `yaml:"value,omitempty"`

	// Null expects select to return Null.
	Null bool `yaml:"is_null,omitempty"`

	// Values is the expected select_all result, in order.
	Values []any `yaml:"values,omitempty"`

	// Count is the expected count result.
	Count *int `yaml:"count,omitempty"`

	// Found is the expected contains result.
	Found *bool `yaml:"found,omitempty"`
}

// Step operations.
const (
	OpCreate       = "create"
	OpLoad         = "load"
	OpUpdate       = "update"
	OpInsert       = "insert"
	OpRemove       = "remove"
	OpRemoveColumn = "remove_column"
	OpRemoveAll    = "remove_all"
	OpRemoveRecord = "remove_record"
	OpChange       = "change"
	OpQuery        = "query"
	OpSelect       = "select"
	OpSelectAll    = "select_all"
	OpCount        = "count"
	OpContains     = "contains"
	OpWatch        = "watch"
)

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "notified": record was notified of property exactly Count times
	// - "notify_order": "record.Property" entries appear in order
	// - "final_state": record's columns in Table hold Expect, or Exists matches
	Type string `yaml:"type"`

	Record   string `yaml:"record,omitempty"`
	Property string `yaml:"property,omitempty"`
	Count    int    `yaml:"count,omitempty"`

	// Order is the expected notification order (used by notify_order).
	Order []string `yaml:"order,omitempty"`

	Table  string         `yaml:"table,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
	Exists *bool          `yaml:"exists,omitempty"`
}

// Assertion type constants.
const (
	AssertNotified    = "notified"
	AssertNotifyOrder = "notify_order"
	AssertFinalState  = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Table directories are resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving table directories relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve table paths BEFORE validation
	for i, dir := range scenario.Tables {
		if !filepath.IsAbs(dir) && basePath != "" {
			scenario.Tables[i] = filepath.Join(basePath, dir)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without validating table paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject typos like "assertion:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Tables) == 0 && len(s.Schema) == 0 {
		return fmt.Errorf("tables or schema is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for _, dir := range s.Tables {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("table directory not found: %s", dir)
		}
	}

	for i, def := range s.Schema {
		if def.Name == "" {
			return fmt.Errorf("schema[%d]: name is required", i)
		}
		if len(def.Columns) == 0 {
			return fmt.Errorf("schema[%d]: columns list is required", i)
		}
	}

	if err := validateSteps("flow", s.Flow); err != nil {
		return err
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateSteps(path string, steps []Step) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		if err := validateStep(at, &step); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the operands each operation needs.
func validateStep(at string, s *Step) error {
	needRecord := func() error {
		if s.Record == "" {
			return fmt.Errorf("%s: record is required for %s", at, s.Op)
		}
		return nil
	}
	needColumn := func() error {
		if err := needRecord(); err != nil {
			return err
		}
		if s.Table == "" || s.Column == "" {
			return fmt.Errorf("%s: table and column are required for %s", at, s.Op)
		}
		return nil
	}
	needValue := func() error {
		if err := needColumn(); err != nil {
			return err
		}
		if s.Value == nil && !s.Null {
			return fmt.Errorf("%s: value or is_null is required for %s", at, s.Op)
		}
		return nil
	}

	switch s.Op {
	case "":
		return fmt.Errorf("%s: op is required", at)
	case OpCreate, OpRemoveRecord, OpWatch:
		return needRecord()
	case OpLoad:
		if err := needRecord(); err != nil {
			return err
		}
		if s.ID == 0 {
			return fmt.Errorf("%s: id is required for load", at)
		}
	case OpUpdate, OpInsert, OpRemove, OpContains:
		return needValue()
	case OpRemoveColumn, OpSelect, OpSelectAll, OpCount:
		return needColumn()
	case OpRemoveAll:
		if err := needRecord(); err != nil {
			return err
		}
		if s.Table == "" {
			return fmt.Errorf("%s: table is required for remove_all", at)
		}
	case OpChange, OpQuery:
		if len(s.Steps) == 0 {
			return fmt.Errorf("%s: steps list is required for %s", at, s.Op)
		}
		return validateSteps(at+".steps", s.Steps)
	default:
		return fmt.Errorf("%s: unknown op %q", at, s.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNotified:
		if a.Record == "" || a.Property == "" {
			return fmt.Errorf("assertions[%d]: record and property are required for notified", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for notified", index)
		}
	case AssertNotifyOrder:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order list is required for notify_order", index)
		}
	case AssertFinalState:
		if a.Record == "" {
			return fmt.Errorf("assertions[%d]: record is required for final_state", index)
		}
		if a.Exists == nil && (a.Table == "" || len(a.Expect) == 0) {
			return fmt.Errorf("assertions[%d]: table and expect, or exists, are required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
