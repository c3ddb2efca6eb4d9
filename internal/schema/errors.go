package schema

import (
	"errors"
	"fmt"
)

// Error is a schema contract violation.
//
// Schema errors are programmer errors: the schema is fixed at process
// warm-up, so any mismatch between a call site and the registered tables is
// a bug in the calling code, not a runtime condition. Register returns them;
// the store panics with them.
type Error struct {
	// Code identifies the violation category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Table and Column locate the violation when known.
	Table  string
	Column string
}

// ErrorCode categorizes schema errors.
type ErrorCode string

const (
	// ErrCodeUnknownTable indicates the table was never registered.
	ErrCodeUnknownTable ErrorCode = "UNKNOWN_TABLE"

	// ErrCodeUnknownColumn indicates the table has no such column.
	ErrCodeUnknownColumn ErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeTypeMismatch indicates a value of the wrong type for the column.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeCardinalityMismatch indicates an operation not valid for the
	// column's cardinality (e.g. Insert on a Unique column).
	ErrCodeCardinalityMismatch ErrorCode = "CARDINALITY_MISMATCH"

	// ErrCodeDuplicateTable indicates a second, different registration of
	// an existing table name.
	ErrCodeDuplicateTable ErrorCode = "DUPLICATE_TABLE"

	// ErrCodeInvalidDefinition indicates a malformed table definition.
	ErrCodeInvalidDefinition ErrorCode = "INVALID_DEFINITION"

	// ErrCodeFrozen indicates registration after the registry was frozen.
	ErrCodeFrozen ErrorCode = "REGISTRY_FROZEN"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("%s: %s (%s.%s)", e.Code, e.Message, e.Table, e.Column)
	case e.Table != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Table)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsCode reports whether err is a schema Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newError(code ErrorCode, table, column, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Table:   table,
		Column:  column,
	}
}

// NewUnknownTable creates an Error for a table that was never registered.
func NewUnknownTable(table string) *Error {
	return newError(ErrCodeUnknownTable, table, "", "table is not registered")
}

// NewUnknownColumn creates an Error for a column missing from its table.
func NewUnknownColumn(table, column string) *Error {
	return newError(ErrCodeUnknownColumn, table, column, "column is not declared")
}

// NewTypeMismatch creates an Error for a value of the wrong type.
func NewTypeMismatch(c *Column, got string) *Error {
	return newError(ErrCodeTypeMismatch, c.Table, c.Name, "column holds %s, got %s", c.Type, got)
}

// NewCardinalityMismatch creates an Error for an operation the column's
// cardinality does not support.
func NewCardinalityMismatch(c *Column, op string) *Error {
	return newError(ErrCodeCardinalityMismatch, c.Table, c.Name, "%s is not valid on a %s column", op, c.Cardinality)
}
