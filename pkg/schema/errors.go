package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeGraph         = "GRAPH_ERROR"
	ErrCodeAssertion     = "ASSERTION_FAILED"
	ErrCodeDecode        = "DECODE_ERROR"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeConfig        = "CONFIG_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeExpression    = "EXPRESSION_ERROR"
	ErrCodeCycleDetected = "CYCLE_DETECTED"
)

// Error is the structured error type shared by every scrapegen surface.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Field   string         `json:"field,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithField attaches the offending configuration field or node name.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}
