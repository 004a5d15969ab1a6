// Package service coordinates card generation, caching and course
// persistence for the API and CLI layers.
package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/wondercards-api/internal/store"
)

// Service errors callers can check with errors.Is. The API layer maps them
// to HTTP status codes.
var (
	// ErrCourseNotFound indicates that the course does not exist.
	ErrCourseNotFound = errors.New("course not found")

	// ErrInvalidRequest indicates the caller supplied an invalid generation
	// request, card list or progress index.
	ErrInvalidRequest = errors.New("invalid request")
)

// CourseServiceError wraps unexpected failures from the course service with context.
type CourseServiceError struct {
	// Operation is the operation that failed (e.g., "save_course")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for CourseServiceError.
func (e *CourseServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("course service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("course service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *CourseServiceError) Unwrap() error {
	return e.Err
}

// NewCourseServiceError creates a CourseServiceError. Store not-found and
// validation errors are translated to the service sentinels instead.
func NewCourseServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrCourseNotFound), errors.Is(err, store.ErrCourseNotFound):
		return ErrCourseNotFound
	case errors.Is(err, ErrInvalidRequest):
		return err
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return &CourseServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
