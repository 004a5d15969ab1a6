package generation

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/wondercards-api/internal/domain"
)

//go:embed templates/cards.tmpl
var defaultPromptTemplate string

// Prompt is a rendered model instruction and the card count it asks for.
type Prompt struct {
	TargetCount int
	Text        string
}

// promptData is the template input.
type promptData struct {
	Topic          string
	AgeGroup       domain.AgeGroup
	StyleDirective string
	Count          int
}

// PromptBuilder renders generation requests into model instructions.
// It holds only a parsed template and is safe for concurrent use.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses the prompt template at path, or the embedded
// default when path is empty.
func NewPromptBuilder(path string) (*PromptBuilder, error) {
	content := defaultPromptTemplate
	name := "cards"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				ErrConfiguration, path, err)
		}
		content = string(raw)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrConfiguration, err)
	}

	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build renders the prompt for req. An unknown age group or course length is
// a caller contract violation and returns ErrConfiguration.
func (b *PromptBuilder) Build(req domain.GenerationRequest) (Prompt, error) {
	count, ok := req.CourseLength.CardCount()
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %w %q", ErrConfiguration, domain.ErrUnknownCourseLength, req.CourseLength)
	}
	directive, ok := req.AgeGroup.StyleDirective()
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %w %q", ErrConfiguration, domain.ErrUnknownAgeGroup, req.AgeGroup)
	}

	data := promptData{
		Topic:          strings.Join(strings.Fields(req.Topic), " "),
		AgeGroup:       req.AgeGroup,
		StyleDirective: directive,
		Count:          count,
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("%w: failed to execute prompt template: %v", ErrConfiguration, err)
	}

	return Prompt{TargetCount: count, Text: buf.String()}, nil
}
