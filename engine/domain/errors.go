package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy. Boundary code matches them
// with errors.Is and maps them to exit codes or HTTP statuses.
var (
	// ErrMissingAPIKey is fatal at startup; model credentials are read once.
	ErrMissingAPIKey = errors.New("missing model API key")

	// ErrInvalidQuery rejects empty or malformed queries before any
	// downstream call is made.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUpstream marks a model call that exhausted its retries.
	ErrUpstream = errors.New("upstream model failure")

	// ErrDuplicateLaw marks a chunk whose law number was already claimed
	// in the same ingestion run.
	ErrDuplicateLaw = errors.New("duplicate law number")

	// ErrUnresolved marks a chunk whose extraction never passed schema
	// validation within the attempt bound.
	ErrUnresolved = errors.New("chunk unresolved")

	// Validation sentinels for structured law records.
	ErrBadLawNumber  = errors.New("malformed law number")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyText     = errors.New("empty text")
	ErrEmptyCategory = errors.New("empty category")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// UpstreamError wraps the underlying failure of an exhausted model call.
// It matches ErrUpstream under errors.Is while keeping the raw cause for
// logs; the raw cause is never forwarded to API callers.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
