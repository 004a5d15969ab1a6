package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by the generation package
var (
	// ErrConfiguration is returned when the request or pipeline setup is
	// invalid. It is never retried and never replaced by fallback cards.
	ErrConfiguration = errors.New("invalid generation configuration")

	// ErrBackend is returned when the generation backend call fails.
	ErrBackend = errors.New("generation backend failed")

	// ErrTimeout is returned when a single attempt exceeds its deadline.
	ErrTimeout = fmt.Errorf("%w: attempt timed out", ErrBackend)

	// ErrEmptyResponse is returned when the backend replies with no text.
	ErrEmptyResponse = fmt.Errorf("%w: empty response", ErrBackend)

	// ErrContentBlocked is returned when the backend refuses the prompt
	// on safety grounds. Retrying does not help, so it ends the retry loop.
	ErrContentBlocked = fmt.Errorf("%w: content blocked by safety filters", ErrBackend)

	// ErrStructureNotFound is returned when the reply has no bracketed region.
	ErrStructureNotFound = errors.New("no JSON structure found in response")

	// ErrJSONSyntax is returned when the payload is not valid JSON.
	ErrJSONSyntax = errors.New("malformed JSON in response")

	// ErrUnrepairable is returned when repair and object salvage both fail.
	ErrUnrepairable = fmt.Errorf("%w: repair and salvage exhausted", ErrJSONSyntax)

	// ErrSchemaValidation is returned when parsed JSON is not a card array.
	ErrSchemaValidation = errors.New("response does not match card schema")
)

// Failure kinds used in attempt logs.
const (
	KindBackend           = "backend"
	KindTimeout           = "timeout"
	KindContentBlocked    = "content_blocked"
	KindStructureNotFound = "structure_not_found"
	KindJSONSyntax        = "json_syntax"
	KindUnrepairable      = "unrepairable"
	KindSchemaValidation  = "schema_validation"
	KindConfiguration     = "configuration"
	KindUnknown           = "unknown"
)

// FailureKind classifies an attempt error for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrContentBlocked):
		return KindContentBlocked
	case errors.Is(err, ErrBackend):
		return KindBackend
	case errors.Is(err, ErrStructureNotFound):
		return KindStructureNotFound
	case errors.Is(err, ErrUnrepairable):
		return KindUnrepairable
	case errors.Is(err, ErrJSONSyntax):
		return KindJSONSyntax
	case errors.Is(err, ErrSchemaValidation):
		return KindSchemaValidation
	default:
		return KindUnknown
	}
}

// FieldIssue is one schema violation.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaError lists every schema violation found in a payload.
type SchemaError struct {
	Issues []FieldIssue
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return ErrSchemaValidation.Error()
	}
	first := e.Issues[0]
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s: %s", ErrSchemaValidation, first.Field, first.Message)
	}
	return fmt.Sprintf("%s: %s: %s (and %d more)", ErrSchemaValidation, first.Field, first.Message, len(e.Issues)-1)
}

// Unwrap makes errors.Is(err, ErrSchemaValidation) hold.
func (e *SchemaError) Unwrap() error {
	return ErrSchemaValidation
}
