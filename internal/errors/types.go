// Package errors defines the structured error type used across a11ytabs.
// Navigation never produces errors; these cover binding preconditions,
// configuration, file I/O and the preview transport.
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
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeNoContainer      = "NO_CONTAINER"
	ErrCodeNoTablist        = "NO_TABLIST"
	ErrCodeNoClickable      = "NO_CLICKABLE"
	ErrCodeNoTabpanel       = "NO_TABPANEL"
	ErrCodeInvalidSelector  = "INVALID_SELECTOR"
	ErrCodeNoContainers     = "NO_CONTAINERS"
	ErrCodeParseFailed      = "PARSE_FAILED"
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeInvalidOrigin    = "INVALID_ORIGIN"
	ErrCodeUnknownNode      = "UNKNOWN_NODE"
	ErrCodeUnknownCommand   = "UNKNOWN_COMMAND"
	ErrCodeInternal         = "INTERNAL"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
)

// TabsError is a structured error type with context.
type TabsError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *TabsError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TabsError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a TabsError with the same type and code.
func (e *TabsError) Is(target error) bool {
	var t *TabsError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *TabsError) WithContext(key string, value interface{}) *TabsError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *TabsError) WithComponent(component string) *TabsError {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *TabsError {
	return &TabsError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *TabsError {
	return &TabsError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError creates a transport error.
func NewNetworkError(code, message string, cause error) *TabsError {
	return &TabsError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TabsError {
	return &TabsError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *TabsError {
	return &TabsError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var te *TabsError
	if errors.As(err, &te) {
		return te.Recoverable
	}

	return false
}

// Binding precondition helpers.

// ErrNoContainer reports a widget constructed without a container.
func ErrNoContainer() *TabsError {
	return NewValidationError(ErrCodeNoContainer, "container element is required")
}

// ErrNoTablist reports a tablist selector with no match inside the container.
func ErrNoTablist(selector string) *TabsError {
	return NewValidationError(ErrCodeNoTablist, "no tablist matches "+selector).
		WithContext("selector", selector)
}

// ErrNoClickable reports a tablist item that holds no link or button.
func ErrNoClickable(index int) *TabsError {
	return NewValidationError(
		ErrCodeNoClickable,
		fmt.Sprintf("tablist item %d has no link or button", index),
	).WithContext("index", index)
}

// ErrNoTabpanel reports a tab without a tabpanel at the same position.
func ErrNoTabpanel(index int, selector string) *TabsError {
	return NewValidationError(
		ErrCodeNoTabpanel,
		fmt.Sprintf("tab %d has no tabpanel matching %s", index, selector),
	).WithContext("index", index).WithContext("selector", selector)
}

// ErrInvalidSelector reports a selector that does not compile.
func ErrInvalidSelector(selector string, cause error) *TabsError {
	return &TabsError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeInvalidSelector,
		Message:     "invalid selector " + selector,
		Cause:       cause,
		Context:     map[string]interface{}{"selector": selector},
		Recoverable: true,
	}
}
