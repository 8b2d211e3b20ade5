// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Signal errors
	ErrInvalidSignal  = &Error{Code: "INVALID_SIGNAL", Message: "signal failed validation"}
	ErrSignalNotFound = &Error{Code: "SIGNAL_NOT_FOUND", Message: "signal not found"}
	ErrInvalidFilter  = &Error{Code: "INVALID_FILTER", Message: "invalid filter value"}

	// Session errors
	ErrSessionRunning = &Error{Code: "SESSION_RUNNING", Message: "refresh loop already running"}
	ErrSessionClosed  = &Error{Code: "SESSION_CLOSED", Message: "session closed"}

	// API errors
	ErrUnauthorized   = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
	ErrJobNotFound    = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}
	ErrJobNotFinished = &Error{Code: "JOB_NOT_FINISHED", Message: "job has not completed"}

	// Archive errors
	ErrArchiveFailed  = &Error{Code: "ARCHIVE_FAILED", Message: "archive write failed"}
	ErrReportNotFound = &Error{Code: "REPORT_NOT_FOUND", Message: "report not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
