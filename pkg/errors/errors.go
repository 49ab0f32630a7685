// Package errors provides the error types used across glassbox.
//
// All errors support Go 1.13+ wrapping. Construction goes through
// cockroachdb/errors so that %+v formatting carries stack traces.
package errors

import (
	"fmt"

	crdberrors "github.com/cockroachdb/errors"
)

// prefix is prepended to every typed error message so that errors are
// attributable when they cross package boundaries.
const prefix = "glassbox: "

// Sentinel errors for errors.Is comparisons.
var (
	// ErrEmptyData indicates an operation received a dataset with no samples.
	ErrEmptyData = crdberrors.New("empty data")

	// ErrNotImplemented indicates a requested capability does not exist yet.
	ErrNotImplemented = crdberrors.New("not implemented")

	// ErrIllegalParam indicates a caller-supplied parameter failed validation.
	ErrIllegalParam = crdberrors.New("illegal parameter value")

	// ErrOutOfMemory indicates an allocation or an overflow-checked sizing
	// step could not be satisfied. Sizing overflows map here because the
	// allocation they guard could never succeed.
	ErrOutOfMemory = crdberrors.New("out of memory")
)

// New returns an error with the supplied message and a captured stack trace.
func New(msg string) error { return crdberrors.New(msg) }

// Newf formats an error like fmt.Errorf and captures a stack trace.
func Newf(format string, args ...interface{}) error {
	return crdberrors.Newf(format, args...)
}

// Wrap annotates err with msg, preserving the chain for errors.Is/As.
func Wrap(err error, msg string) error { return crdberrors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdberrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return crdberrors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool { return crdberrors.As(err, target) }

// ValueError indicates a value-level validation failure in an operation.
type ValueError struct {
	Op      string // operation that rejected the value
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return prefix + e.Op + ": " + e.Message
}

// DimensionError indicates a shape mismatch between expected and actual data.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError for the given operation and axis.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s%s: dimension mismatch on axis %d: expected %d, got %d",
		prefix, e.Op, e.Axis, e.Expected, e.Got)
}

// NotFittedError indicates a model method was called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError for the given model and method.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s%s: %s called before model was fitted",
		prefix, e.ModelName, e.Method)
}

// ModelError wraps a lower-level failure with model operation context.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return prefix + e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return prefix + e.Op + ": " + e.Message
}

// Unwrap returns the wrapped error.
func (e *ModelError) Unwrap() error { return e.Err }
