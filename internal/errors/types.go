// Package errors defines the structured error type shared by the
// redirector commands and plugins, together with user-facing suggestions.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeTemplate   ErrorType = "template"
	ErrorTypePlatform   ErrorType = "platform"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes.
const (
	CodeTemplateMissing = "TEMPLATE_MISSING"
	CodeTemplateRead    = "TEMPLATE_READ"
	CodeUnknownPlatform = "UNKNOWN_PLATFORM"
	CodeArtifactWrite   = "ARTIFACT_WRITE"
	CodeArtifactEncode  = "ARTIFACT_ENCODE"
	CodeEnvLoad         = "ENV_LOAD"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeStrictCheck     = "STRICT_CHECK"
)

// Error is a structured error type with context.
type Error struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same type and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *Error) WithLocation(filePath string, line int) *Error {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithComponent adds component context.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewTemplateError creates a template error. Template problems never abort a run.
func NewTemplateError(code, message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeTemplate,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewPlatformError creates a platform selection error.
func NewPlatformError(code, message string) *Error {
	return &Error{
		Type:        ErrorTypePlatform,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Recoverable
	}

	return false
}

// IsFatal reports whether err must terminate the process.
// Unstructured errors are treated as fatal.
func IsFatal(err error) bool {
	return err != nil && !IsRecoverable(err)
}

// HasCode reports whether err wraps an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}

	return false
}
