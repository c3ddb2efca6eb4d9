package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
	"github.com/roach88/ontostore/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nNotifications:\n")
		for i, event := range e.Trace {
			if event.Type == EventChange {
				fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.Record, event.Properties)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides store access for final_state assertions.
type AssertionContext struct {
	Store   *store.Store
	Records map[string]ir.ID
}

// assertNotified checks that record received property exactly Count times
// through the global sinks.
func assertNotified(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventChange && event.Record == assertion.Record && hasProperty(event, assertion.Property) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertNotified,
			Expected: fmt.Sprintf("%d notifications of %s.%s", assertion.Count, assertion.Record, assertion.Property),
			Actual:   fmt.Sprintf("%d notifications", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertNotifyOrder checks that "record.Property" entries first appear in
// the given order. Entries need not be consecutive.
func assertNotifyOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Type != EventChange {
			continue
		}
		for _, p := range event.Properties {
			key := event.Record + "." + p
			if positions[key] == 0 {
				positions[key] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, key := range assertion.Order {
		if positions[key] == 0 {
			return &AssertionError{
				Type:     AssertNotifyOrder,
				Expected: fmt.Sprintf("all notifications present: %v", assertion.Order),
				Actual:   fmt.Sprintf("missing notification: %s", key),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Order); i++ {
		prev, curr := assertion.Order[i-1], assertion.Order[i]
		if positions[prev] > positions[curr] {
			return &AssertionError{
				Type:     AssertNotifyOrder,
				Expected: fmt.Sprintf("notifications in order: %v", assertion.Order),
				Actual: fmt.Sprintf("%s (pos %d) should not be after %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertFinalState checks record existence and column values.
// Scalar columns compare with Select; intermediate columns expect a list
// compared in order with SelectAll.
func assertFinalState(actx *AssertionContext, assertion Assertion) error {
	id, ok := actx.Records[assertion.Record]
	if !ok {
		return fmt.Errorf("final_state: unknown record %q", assertion.Record)
	}

	if assertion.Exists != nil {
		if got := actx.Store.Exists(id); got != *assertion.Exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("record %s exists=%t", assertion.Record, *assertion.Exists),
				Actual:   fmt.Sprintf("exists=%t", got),
			}
		}
	}

	if assertion.Table == "" {
		return nil
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		column, err := actx.Store.Registry().Column(assertion.Table, name)
		if err != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %s.%s to exist", assertion.Table, name),
				Actual:   err.Error(),
			}
		}

		raw := assertion.Expect[name]
		if column.Cardinality == schema.Intermediate {
			if err := compareRelation(actx, assertion, column, raw, id); err != nil {
				return err
			}
			continue
		}

		want, err := expectedValue(actx, column, raw)
		if err != nil {
			return err
		}
		got := actx.Store.Select(id, assertion.Table, name)
		if got != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %s", assertion.Record, name, ir.Format(want)),
				Actual:   fmt.Sprintf("%s.%s = %s", assertion.Record, name, ir.Format(got)),
			}
		}
	}
	return nil
}

func compareRelation(actx *AssertionContext, assertion Assertion, column *schema.Column, raw any, id ir.ID) error {
	list, ok := raw.([]any)
	if !ok && raw != nil {
		return fmt.Errorf("final_state: %s.%s expects a list, got %T", assertion.Table, column.Name, raw)
	}
	want := make([]ir.Value, len(list))
	for i, item := range list {
		v, err := expectedValue(actx, column, item)
		if err != nil {
			return err
		}
		want[i] = v
	}
	got := actx.Store.SelectAll(id, assertion.Table, column.Name)
	if !equalValues(want, got) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s.%s = %s", assertion.Record, column.Name, formatValues(want)),
			Actual:   fmt.Sprintf("%s.%s = %s", assertion.Record, column.Name, formatValues(got)),
		}
	}
	return nil
}

// expectedValue resolves an expected value. Strings in ref columns name
// record aliases; nil expects Null.
func expectedValue(actx *AssertionContext, column *schema.Column, raw any) (ir.Value, error) {
	if alias, ok := raw.(string); ok && column.Type == ir.TypeRef {
		id, ok := actx.Records[alias]
		if !ok {
			return nil, fmt.Errorf("final_state: unknown record %q", alias)
		}
		return ir.Ref(id), nil
	}
	v, err := ir.Coerce(column.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("final_state: %s.%s: %w", column.Table, column.Name, err)
	}
	return v, nil
}

func hasProperty(event TraceEvent, property string) bool {
	for _, p := range event.Properties {
		if p == property {
			return true
		}
	}
	return false
}

// EvaluateAssertions runs all assertions against a scenario result.
// Returns one error message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertNotified:
			err = assertNotified(result.Trace, assertion)
		case AssertNotifyOrder:
			err = assertNotifyOrder(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a store", i)
			} else {
				err = assertFinalState(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
