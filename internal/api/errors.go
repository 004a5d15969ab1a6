package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/service"
	"github.com/phrazzld/wondercards-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Course not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Course already exists"

	case errors.Is(err, domain.ErrCardIndexOutOfBounds):
		return "Card index is out of range for this course"

	case errors.Is(err, domain.ErrUnknownAgeGroup):
		return "Unknown age group"

	case errors.Is(err, domain.ErrUnknownCourseLength):
		return "Unknown course length"

	case errors.Is(err, domain.ErrEmptyTopic):
		return "Topic is required"

	case errors.Is(err, domain.ErrTopicTooLong):
		return fmt.Sprintf("Topic must be at most %d characters", domain.MaxTopicLength)

	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe.Field()), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// jsonFieldName lower-cases the first letter of a Go field name, which
// matches the camelCase JSON names used by the request types.
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
