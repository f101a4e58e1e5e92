// Package errors provides the error types used across the scholarsync
// reconciliation engine. Sentinels support errors.Is checks; the typed
// errors carry enough structure for batch reports and operator tooling.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are aliases for the standard library equivalents so callers
// need only one errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors.
var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a record already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceEmpty indicates a feed contained no rows at all.
	ErrSourceEmpty = errors.New("source is empty")

	// ErrNoRecords indicates a feed contained a header but no data rows.
	ErrNoRecords = errors.New("source has no records")

	// ErrParseFailed indicates one or more rows of a feed could not be
	// converted to candidate records.
	ErrParseFailed = errors.New("parse failed")
)

// NotFoundError represents a record lookup that matched nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure at the adapter boundary.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// RowError records one feed row that could not be converted to a candidate
// record. Row errors never abort a batch; they are collected and surfaced
// once at the end inside an AggregateError.
type RowError struct {
	Line    int
	Message string
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
}

// Is implements errors.Is support.
func (e *RowError) Is(target error) bool {
	return target == ErrParseFailed
}

// NewRowError creates a new RowError for a 1-based line number.
func NewRowError(line int, message string) *RowError {
	return &RowError{Line: line, Message: message}
}

// SourceError wraps a feed-level structural failure (empty feed, header
// with no data rows) with the name of the offending source.
type SourceError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("source %s: %v", e.Source, e.Err)
	}
	return e.Err.Error()
}

// Unwrap implements errors.Unwrap.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError.
func NewSourceError(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err}
}

// AggregateError is raised once, after every row of a batch has been
// attempted, when any row failed to parse. It carries the full ordered
// list so the caller can report all failures at once.
type AggregateError struct {
	Source string
	Rows   []*RowError
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d row(s) failed to parse", len(e.Rows))
	if e.Source != "" {
		fmt.Fprintf(&sb, " in source %s", e.Source)
	}
	for _, row := range e.Rows {
		sb.WriteString("; ")
		sb.WriteString(row.Error())
	}
	return sb.String()
}

// Is implements errors.Is support.
func (e *AggregateError) Is(target error) bool {
	return target == ErrParseFailed
}

// NewAggregateError creates a new AggregateError.
func NewAggregateError(source string, rows []*RowError) *AggregateError {
	return &AggregateError{Source: source, Rows: rows}
}

// ResourceError represents a failed persistence operation on a record.
type ResourceError struct {
	Operation string // "create", "update", "delete", "fetch"
	Resource  string // "person", "publication", "membership", ...
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError.
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSourceEmpty checks if an error indicates a feed with no rows at all.
func IsSourceEmpty(err error) bool {
	return errors.Is(err, ErrSourceEmpty)
}

// IsNoRecords checks if an error indicates a feed with no data rows.
func IsNoRecords(err error) bool {
	return errors.Is(err, ErrNoRecords)
}

// IsParseFailed checks if an error stems from row parsing.
func IsParseFailed(err error) bool {
	return errors.Is(err, ErrParseFailed)
}

// WrapResource wraps an error as a ResourceError.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a parse failure with context.
func WrapParse(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", context, ErrParseFailed, err)
}

// WrapValidation wraps an error as a ValidationError.
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}
