package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies pipeline failures
type ErrorType string

const (
	// ErrorTypeWindow covers failures reading or transforming a single
	// grid window. The window contributes no records; the scan continues.
	ErrorTypeWindow ErrorType = "window_extraction"

	// ErrorTypeChunkCorrupt covers chunk files that fail a readability
	// probe or a full read during merge. The file is quarantined.
	ErrorTypeChunkCorrupt ErrorType = "chunk_corrupt"

	// ErrorTypeConsolidation covers a failure appending one chunk to
	// the consolidated store. The chunk's transaction rolls back and
	// the file is quarantined; the merge continues.
	ErrorTypeConsolidation ErrorType = "consolidation_write"

	// ErrorTypeSource covers failures opening or decoding the source
	// grid. Fatal for the run.
	ErrorTypeSource ErrorType = "source"

	// ErrorTypeScanFatal covers errors escaping the per-window boundary.
	// Fatal for the run; the checkpoint keeps its last saved value.
	ErrorTypeScanFatal ErrorType = "scan_fatal"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a pipeline error with type information
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without a cause
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the error's type, or ErrorTypeUnknown for untyped errors
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsRecoverable checks if an error type is isolated to one unit of work.
// Recoverable failures are logged and skipped; the rest abort the run.
func IsRecoverable(t ErrorType) bool {
	switch t {
	case ErrorTypeWindow, ErrorTypeChunkCorrupt, ErrorTypeConsolidation:
		return true
	case ErrorTypeSource, ErrorTypeScanFatal:
		return false
	default:
		return false
	}
}
