package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeInvalidRecord    = "INVALID_RECORD"
	ErrCodeEmptyDataset     = "EMPTY_DATASET"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeSessionNotFound  = "SESSION_NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidRecord    = NewDomainError(ErrCodeInvalidRecord, "Inventory record is malformed")
	ErrEmptyDataset     = NewDomainError(ErrCodeEmptyDataset, "No inventory records to fit the demand model on")
	ErrStoreUnavailable = NewDomainError(ErrCodeStoreUnavailable, "Inventory store is missing or unreadable")
	ErrSessionNotFound  = NewDomainError(ErrCodeSessionNotFound, "Session not found or expired")
)

// DataError describes one malformed field. Row is 1-based over data rows
// and zero when the error is not tied to a row.
type DataError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *DataError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap lets errors.Is match ErrInvalidRecord.
func (e *DataError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidRecord}
	}
	return []error{ErrInvalidRecord, e.Err}
}
