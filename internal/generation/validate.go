package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

// cardSchema describes a model reply: a non-empty array of objects with a
// title that is not blank, a string content, and an optional string-or-null
// funFact. Unknown keys are tolerated and dropped on decode.
const cardSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["title", "content"],
    "properties": {
      "title":   {"type": "string", "minLength": 1, "pattern": "\\S"},
      "content": {"type": "string"},
      "funFact": {"type": ["string", "null"]}
    }
  }
}`

// CardValidator checks parsed payloads against the card schema.
type CardValidator struct {
	schema *gojsonschema.Schema
}

// NewCardValidator compiles the card schema.
func NewCardValidator() (*CardValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(cardSchema))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compile card schema: %v", ErrConfiguration, err)
	}
	return &CardValidator{schema: schema}, nil
}

// Validate checks data against the card schema and decodes it. A missing or
// blank funFact becomes nil. Schema violations are returned as *SchemaError.
func (v *CardValidator) Validate(data []byte) ([]domain.Card, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJSONSyntax, err)
	}

	if !result.Valid() {
		schemaErr := &SchemaError{Issues: make([]FieldIssue, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			schemaErr.Issues = append(schemaErr.Issues, FieldIssue{
				Field:   field,
				Message: desc.Description(),
			})
		}
		return nil, schemaErr
	}

	var cards []domain.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	for i := range cards {
		if cards[i].FunFact != nil && strings.TrimSpace(*cards[i].FunFact) == "" {
			cards[i].FunFact = nil
		}
	}
	return cards, nil
}

// ValidCard reports whether obj, a single JSON object, is a valid card.
func (v *CardValidator) ValidCard(obj []byte) bool {
	wrapped := make([]byte, 0, len(obj)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, obj...)
	wrapped = append(wrapped, ']')
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(wrapped))
	return err == nil && result.Valid()
}

// unwrapEnvelope normalizes object-shaped payloads into an array: an object
// carrying a "cards" array yields that array, any other object is treated as
// a single card. Arrays pass through unchanged.
func unwrapEnvelope(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return data
	}
	if inner, ok := envelope["cards"]; ok {
		if t := bytes.TrimSpace(inner); len(t) > 0 && t[0] == '[' {
			return t
		}
	}

	wrapped := make([]byte, 0, len(trimmed)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, trimmed...)
	return append(wrapped, ']')
}
