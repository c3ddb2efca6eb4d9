// Package harness runs store scenarios described in YAML.
//
// A scenario registers tables, executes a flow of store operations and
// validates the notifications it produced and the state it left behind.
//
// # Scenario Format
//
//	name: effect_teardown
//	description: "Removing an effect notifies once per property"
//	tables:
//	  - ../tables            # CUE table directories
//	schema:                  # or inline definitions
//	  - name: Counter
//	    columns:
//	      - { name: Value, type: int, cardinality: unique }
//	flow:
//	  - op: create
//	    record: a
//	  - op: change
//	    steps:
//	      - op: update
//	        record: a
//	        table: Counter
//	        column: Value
//	        value: 3
//	        expect: { result: success }
//	  - op: select
//	    record: a
//	    table: Counter
//	    column: Value
//	    expect: { value: 3 }
//	assertions:
//	  - type: notified
//	    record: a
//	    property: Value
//	    count: 1
//
// Records are referred to by alias. In ref columns a string value names an
// alias.
//
// # Assertion Types
//
//   - notified: a record received a property notification exactly N times
//   - notify_order: "record.Property" notifications appear in order
//   - final_state: a record's column values, or its existence
//
// # Deterministic Testing
//
// Every scenario runs against a fresh registry, allocator and store, so ids
// start at 1 and the trace is reproducible. RunWithGolden compares the
// canonical JSON trace with testdata/golden/<name>.golden using goldie.
package harness
