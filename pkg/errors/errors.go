// Package errors provides structured error handling for growout
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeFormat represents identifiers that do not decode to a valid growout
	ErrorTypeFormat ErrorType = "format"
	// ErrorTypeTypeMismatch represents a cell whose type disagrees with its column
	ErrorTypeTypeMismatch ErrorType = "type_mismatch"
	// ErrorTypeEmptyInput represents input that produced no data rows
	ErrorTypeEmptyInput ErrorType = "empty_input"
	// ErrorTypeUnknownTransformer represents a transformer name that is not registered
	ErrorTypeUnknownTransformer ErrorType = "unknown_transformer"
	// ErrorTypeCardinality represents identifiers and filenames that do not pair one to one
	ErrorTypeCardinality ErrorType = "cardinality"
	// ErrorTypeMalformedRow represents a row whose width differs from the header
	ErrorTypeMalformedRow ErrorType = "malformed_row"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeData represents data processing errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeConnection represents remote store errors
	ErrorTypeConnection ErrorType = "connection"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value previously attached with WithDetail
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error, or any error it wraps, is of the given type
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == errType {
			return true
		}
		err = e.Cause
	}
	return false
}

// Format reports a value that does not decode to a location-year pair, growout
// filename or chromosome label.
func Format(value, reason string) *Error {
	e := New(ErrorTypeFormat, fmt.Sprintf("unable to convert %q: %s", value, reason))
	e.Stack = captureStack(2)
	return e.WithDetail("value", value)
}

// TypeMismatch reports an ingested cell whose type disagrees with its column.
func TypeMismatch(value, expected, column string, line int) *Error {
	e := New(ErrorTypeTypeMismatch, fmt.Sprintf(
		"%q does not match column type of %s (column %q, line %d). Check for extra headers or comments",
		value, expected, column, line))
	e.Stack = captureStack(2)
	return e.WithDetail("value", value).
		WithDetail("expected", expected).
		WithDetail("column", column).
		WithDetail("line", line)
}

// EmptyInput reports a source that produced no data rows.
func EmptyInput(source string) *Error {
	e := New(ErrorTypeEmptyInput, fmt.Sprintf("no data supplied from %s", source))
	e.Stack = captureStack(2)
	return e.WithDetail("source", source)
}

// UnknownTransformer reports a transformer name missing from the registry.
func UnknownTransformer(name string, known []string) *Error {
	msg := fmt.Sprintf("unknown transformer %q, available: %s", name, strings.Join(known, ", "))
	if name == "" {
		msg = "no transformer was supplied, available: " + strings.Join(known, ", ")
	}
	e := New(ErrorTypeUnknownTransformer, msg)
	e.Stack = captureStack(2)
	return e.WithDetail("name", name)
}

// Cardinality reports a growout key that is reached from more than one distinct value.
func Cardinality(key string, values ...string) *Error {
	e := New(ErrorTypeCardinality, fmt.Sprintf("%q pairs with more than one value: %s", key, strings.Join(values, ", ")))
	e.Stack = captureStack(2)
	return e.WithDetail("key", key).WithDetail("values", values)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
