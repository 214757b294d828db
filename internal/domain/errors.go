package domain

import (
	"errors"
	"fmt"
)

/**
 * Error codes for translation operations.
 * Every failure surfaced by the service carries exactly one of these.
 */
type ErrorCode string

const (
	ErrCodeUsage              ErrorCode = "usage_error"
	ErrCodeConfig             ErrorCode = "config_error"
	ErrCodeUnsupportedPair    ErrorCode = "unsupported_pair"
	ErrCodeEngine             ErrorCode = "engine_error"
	ErrCodeLifecycle          ErrorCode = "lifecycle_error"
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
)

/**
 * Structured application error with context.
 */
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Param   string    `json:"param,omitempty"` // Parameter that caused error
	Cause   error     `json:"-"`               // Underlying error (not serialized)
}

/**
 * Error implements the error interface.
 */
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError by code only, so sentinel values such as
// &AppError{Code: ErrCodeLifecycle} work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

/**
 * Create a new AppError.
 */
func NewError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

/**
 * Add parameter name to error context.
 */
func (e *AppError) WithParam(param string) *AppError {
	e.Param = param
	return e
}

/**
 * Add underlying cause to error.
 */
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

/**
 * Common error constructors for convenience.
 */

func ErrUsage(message string) *AppError {
	return NewError(ErrCodeUsage, message)
}

func ErrConfig(message string) *AppError {
	return NewError(ErrCodeConfig, message)
}

func ErrUnsupportedPair(pair LanguagePair) *AppError {
	return NewError(ErrCodeUnsupportedPair, fmt.Sprintf("no model loaded for %s", pair)).WithParam(pair.String())
}

func ErrEngine(message string) *AppError {
	return NewError(ErrCodeEngine, message)
}

func ErrLifecycle(message string) *AppError {
	return NewError(ErrCodeLifecycle, message)
}

func ErrServiceUnavailable(message string) *AppError {
	return NewError(ErrCodeServiceUnavailable, message)
}
