// Package errors provides standardized error handling for the federated
// search engine.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMissingRequiredFields ErrorCode = "MISSING_REQUIRED_FIELDS"
	ErrCodeInvalidSearchType     ErrorCode = "INVALID_SEARCH_TYPE"
	ErrCodeMissingSearchValues   ErrorCode = "MISSING_SEARCH_VALUES"
	ErrCodeInvalidRequestFormat  ErrorCode = "INVALID_REQUEST_FORMAT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSourceUnavailable        ErrorCode = "SOURCE_UNAVAILABLE"

	ErrCodeChainStageFailed ErrorCode = "CHAIN_STAGE_FAILED"

	ErrCodeCacheUnavailable    ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeCatalogLookupFailed ErrorCode = "CATALOG_LOOKUP_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissingRequiredFieldsError creates a non-retryable validation error
// for a request missing one or more required fields.
func NewMissingRequiredFieldsError(fields ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRequiredFields,
		Message:   "Required request fields are missing",
		Details:   fmt.Sprintf("fields: %s", strings.Join(fields, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSearchTypeError creates a non-retryable validation error for
// a search type outside the enumerated set.
func NewInvalidSearchTypeError(searchType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSearchType,
		Message:   "Unsupported search type",
		Details:   fmt.Sprintf("searchType: %s", searchType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingSearchValuesError creates a non-retryable validation error for
// a request whose normalized value list is empty when values are required.
func NewMissingSearchValuesError(searchType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingSearchValues,
		Message:   "At least one search value is required for this search type",
		Details:   fmt.Sprintf("searchType: %s", searchType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestFormatError creates a non-retryable error for a payload
// rejected by schema validation at the API boundary.
func NewInvalidRequestFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequestFormat,
		Message:   "Request payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Query execution error",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Query timed out",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceUnavailableError creates a retryable error for a source the
// engine has no configured backend for.
func NewSourceUnavailableError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceUnavailable,
		Message:   "Data source is not available",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewChainStageFailedError creates a non-retryable error identifying which
// chained-search stage failed.
func NewChainStageFailedError(stage string, err error) *StandardError {
	details := fmt.Sprintf("stage: %s", stage)
	if err != nil {
		details = fmt.Sprintf("stage: %s, error: %s", stage, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeChainStageFailed,
		Message:   "Chained search stage failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Catalog cache is unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLookupFailedError creates a retryable catalog lookup error.
func NewCatalogLookupFailedError(column string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLookupFailed,
		Message:   "Catalog lookup failed",
		Details:   fmt.Sprintf("column: %s, error: %s", column, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the status the API layer responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingRequiredFields,
		ErrCodeInvalidSearchType,
		ErrCodeMissingSearchValues,
		ErrCodeInvalidRequestFormat:
		return http.StatusBadRequest

	case ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout

	case ErrCodeDatabaseConnectionFailed,
		ErrCodeSourceUnavailable,
		ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeCatalogLookupFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSourceUnavailable,
		ErrCodeCacheUnavailable:
		return 2

	default:
		return 0 // Validation errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MISSING") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "SOURCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "CHAIN"):
		return "CHAIN"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	default:
		return "OTHER"
	}
}
