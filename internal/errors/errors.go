package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// Error codes.
//
// MALFORMED_INPUT and EMPTY_DATASET abort the single request with no partial
// result. RULEBASE_LOAD is fatal at process start. The oracle codes and
// NARRATIVE_INCOMPLETE are recoverable: the structured triage result stays
// valid without narrative annotation.
const (
	CodeMalformedInput      = "MALFORMED_INPUT"
	CodeEmptyDataset        = "EMPTY_DATASET"
	CodeRuleBaseLoad        = "RULEBASE_LOAD"
	CodeOracleTimeout       = "ORACLE_TIMEOUT"
	CodeOracleUnavailable   = "ORACLE_UNAVAILABLE"
	CodeNarrativeIncomplete = "NARRATIVE_INCOMPLETE"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Common error constructors
func MalformedInput(message string) *AppError {
	return New(CodeMalformedInput, message)
}

func MalformedInputf(format string, args ...interface{}) *AppError {
	return New(CodeMalformedInput, fmt.Sprintf(format, args...))
}

func EmptyDataset(message string) *AppError {
	return New(CodeEmptyDataset, message)
}

func RuleBaseLoad(message string, cause error) *AppError {
	return &AppError{Code: CodeRuleBaseLoad, Message: message, Cause: cause}
}

func OracleTimeout(cause error) *AppError {
	return &AppError{Code: CodeOracleTimeout, Message: "reasoning oracle timed out", Cause: cause}
}

func OracleUnavailable(cause error) *AppError {
	return &AppError{Code: CodeOracleUnavailable, Message: "reasoning oracle unavailable", Cause: cause}
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
