package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies failures by how the caller should react.
type ErrorCategory string

const (
	// Fatal at construction time: bad inputs surfaced to the caller.
	ErrorCategoryValidation ErrorCategory = "VALIDATION"

	// Non-fatal: a candidate or period with too little usable data is
	// skipped rather than reported as a failure.
	ErrorCategoryInsufficientData ErrorCategory = "INSUFFICIENT_DATA"

	// Contained: an unexpected failure inside one candidate or one
	// walk-forward period, converted to a zero-result skip.
	ErrorCategoryComputation ErrorCategory = "COMPUTATION"

	// External data sources (CSV files, ClickHouse).
	ErrorCategoryData ErrorCategory = "DATA"
)

// BacktestError is a categorized error with component context.
type BacktestError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *BacktestError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *BacktestError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether this error should abort the enclosing run
// instead of degrading to a skip.
func (e *BacktestError) IsFatal() bool {
	return e.Category == ErrorCategoryValidation
}

// New creates a new categorized error.
func New(category ErrorCategory, component, operation, message string) *BacktestError {
	return &BacktestError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Wrap wraps an existing error with category and component context.
func Wrap(err error, category ErrorCategory, component, operation string) *BacktestError {
	if err == nil {
		return nil
	}
	return &BacktestError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewValidationError creates a fatal construction-time validation error.
func NewValidationError(component, operation, message string) *BacktestError {
	return New(ErrorCategoryValidation, component, operation, message)
}

// NewInsufficientDataError marks a candidate or period that lacks the
// minimum usable rows. Callers treat it as a skip, not a failure.
func NewInsufficientDataError(component, operation, message string) *BacktestError {
	return New(ErrorCategoryInsufficientData, component, operation, message)
}

// NewComputationError wraps an unexpected failure inside one unit of work.
func NewComputationError(component, operation string, err error) *BacktestError {
	return Wrap(err, ErrorCategoryComputation, component, operation)
}

// NewDataError wraps a failure from an external data source.
func NewDataError(component, operation string, err error) *BacktestError {
	return Wrap(err, ErrorCategoryData, component, operation)
}

// IsCategory reports whether err (or anything it wraps) carries the
// given category.
func IsCategory(err error, category ErrorCategory) bool {
	var be *BacktestError
	if errors.As(err, &be) {
		return be.Category == category
	}
	return false
}

// IsValidation reports whether err is a construction-time validation error.
func IsValidation(err error) bool {
	return IsCategory(err, ErrorCategoryValidation)
}

// IsInsufficientData reports whether err marks a too-few-rows skip.
func IsInsufficientData(err error) bool {
	return IsCategory(err, ErrorCategoryInsufficientData)
}
