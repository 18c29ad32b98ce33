// Package errors provides structured error handling for asrsmcp.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (corpus file, telemetry database)
//   - 4XX: Validation errors (tool parameters)
//   - 5XX: Internal errors
//   - 6XX: Lookup errors (referenced incident does not exist)
//   - 7XX: Precondition errors (record lacks data an operation needs)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and database I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates invalid tool parameters.
	CategoryValidation Category = "VALIDATION"
	// CategoryNotFound indicates an identifier that resolves to no record.
	CategoryNotFound Category = "NOT_FOUND"
	// CategoryPrecondition indicates a record missing data required by the operation.
	CategoryPrecondition Category = "PRECONDITION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound  = "ERR_201_FILE_NOT_FOUND"
	ErrCodeCorpusInvalid = "ERR_202_CORPUS_INVALID"
	ErrCodeCorpusEmpty   = "ERR_203_CORPUS_EMPTY"
	ErrCodeStoreFailed   = "ERR_204_STORE_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodeMissingParameter = "ERR_402_MISSING_PARAMETER"
	ErrCodeInvalidDate      = "ERR_403_INVALID_DATE"
	ErrCodeInvalidRange     = "ERR_404_INVALID_RANGE"
	ErrCodeNoFilter         = "ERR_405_NO_FILTER"
	ErrCodeUnknownTool      = "ERR_406_UNKNOWN_TOOL"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"

	// Lookup errors (600-699)
	ErrCodeIncidentNotFound = "ERR_601_INCIDENT_NOT_FOUND"

	// Precondition errors (700-799)
	ErrCodeUnclassified = "ERR_701_UNCLASSIFIED"
	ErrCodeMissingField = "ERR_702_MISSING_FIELD"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '6':
		return CategoryNotFound
	case '7':
		return CategoryPrecondition
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorpusInvalid, ErrCodeCorpusEmpty, ErrCodeFileNotFound:
		// The corpus is the only input; without it nothing can be served.
		return SeverityFatal
	case ErrCodeStoreFailed:
		return SeverityWarning
	}
	return SeverityError
}
