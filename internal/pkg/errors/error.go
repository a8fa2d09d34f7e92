package xerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common reusable application errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRateLimited    = errors.New("too many requests")
	ErrSessionExpired = errors.New("session expired or invalid")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Upload pipeline errors
var (
	ErrEmptyUpload      = errors.New("no data rows in upload")
	ErrNoEligibleAgents = errors.New("no active agents to distribute to")
)

// ParseError reports input bytes that could not be read as CSV or spreadsheet.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError lists every required column missing from the header row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsClientError reports whether err was caused by the uploaded input or the
// current agent roster rather than by the server.
func IsClientError(err error) bool {
	var pe *ParseError
	var se *SchemaError
	return errors.As(err, &pe) ||
		errors.As(err, &se) ||
		errors.Is(err, ErrEmptyUpload) ||
		errors.Is(err, ErrNoEligibleAgents) ||
		errors.Is(err, ErrInvalidInput)
}
