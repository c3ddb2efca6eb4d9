package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/ontostore/internal/schema"
)

// LoadResult contains the tables loaded from one or more directories.
type LoadResult struct {
	Registry  *schema.Registry
	Tables    []*schema.Table // registered tables in name order
	FileCount int             // number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTables compiles the CUE tables in each directory and registers them
// into a fresh registry. The registry is returned unfrozen.
func LoadTables(dirs ...string) (*LoadResult, error) {
	reg := schema.NewRegistry()
	result := &LoadResult{Registry: reg}

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
		}
		if !info.IsDir() {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
		}

		files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
		}
		result.FileCount += len(files)

		tables, err := schema.LoadDir(dir)
		if err != nil {
			return nil, convertLoadError(err)
		}
		for _, t := range tables {
			if err := reg.Register(t); err != nil {
				return nil, convertLoadError(err)
			}
		}
	}

	result.Tables = reg.Tables()
	if len(result.Tables) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "no tables found in schema"}
	}
	return result, nil
}

// convertLoadError converts a compile or registration error to a LoadError.
func convertLoadError(err error) *LoadError {
	var compileErr *schema.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	var schemaErr *schema.Error
	if errors.As(err, &schemaErr) {
		return &LoadError{
			Code:    MapSchemaErrorCode(schemaErr.Code),
			Message: schemaErr.Error(),
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeWriteFailed = "E007" // File write error

	// Table definition errors
	ErrCodeTable       = "E101" // Malformed table block
	ErrCodeColumns     = "E102" // Missing or malformed columns
	ErrCodeInvalidType = "E103" // Unknown column type
	ErrCodeCardinality = "E104" // Unknown cardinality
	ErrCodeLink        = "E105" // Unknown link annotation

	// Registration errors
	ErrCodeDuplicateTable    = "E110" // Same name, different definition
	ErrCodeInvalidDefinition = "E111" // Definition rejected by the registry
)

// MapFieldToErrorCode maps a schema compile error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "table":
		return ErrCodeTable
	case "columns":
		return ErrCodeColumns
	case "type":
		return ErrCodeInvalidType
	case "cardinality":
		return ErrCodeCardinality
	case "link":
		return ErrCodeLink
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

// MapSchemaErrorCode maps a registry error code to an error code.
func MapSchemaErrorCode(code schema.ErrorCode) string {
	switch code {
	case schema.ErrCodeDuplicateTable:
		return ErrCodeDuplicateTable
	case schema.ErrCodeInvalidDefinition:
		return ErrCodeInvalidDefinition
	default:
		return ErrCodeGeneric
	}
}
