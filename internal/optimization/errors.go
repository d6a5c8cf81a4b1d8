package optimization

import (
	"errors"
	"fmt"
)

// Kind classifies optimization errors so callers can distinguish bad
// configuration from a failing objective function.
type Kind int

const (
	// KindConfig marks errors raised while validating optimizer
	// configuration; the run never starts.
	KindConfig Kind = iota + 1
	// KindEvaluation marks errors raised by the objective function,
	// including non-finite return values. The run is aborted and the
	// optimizer should be discarded.
	KindEvaluation
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindEvaluation:
		return "evaluation"
	default:
		return "unknown"
	}
}

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// NewConfigError creates a configuration error with a formatted message.
func NewConfigError(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewEvaluationError creates an evaluation error with a formatted message.
func NewEvaluationError(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindEvaluation,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapEvaluationError wraps an error returned by an objective function.
// If err is nil, it returns nil.
func WrapEvaluationError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    KindEvaluation,
		Message: message,
		Err:     err,
	}
}

// IsConfigError reports whether err is an optimization configuration error.
func IsConfigError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConfig
}

// IsEvaluationError reports whether err is an objective evaluation error.
func IsEvaluationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindEvaluation
}
