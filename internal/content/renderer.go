// Package content renders card text to HTML for clients that display it
// directly. Card content may be Markdown, inline HTML, or plain text.
package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/phrazzld/wondercards-api/internal/domain"
)

// Renderer converts card content and fun facts from Markdown to HTML.
// It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer. Raw HTML in card content is kept, since
// models are asked for child-friendly markup and clients render it as-is.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
			goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
		),
	}
}

// Render converts one Markdown fragment to HTML.
func (r *Renderer) Render(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// RenderCards returns copies of cards with Content and FunFact rendered
// to HTML. Titles are left as plain text.
func (r *Renderer) RenderCards(cards []domain.Card) ([]domain.Card, error) {
	out := make([]domain.Card, len(cards))
	for i, card := range cards {
		body, err := r.Render(card.Content)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		out[i] = domain.Card{Title: card.Title, Content: body}

		if card.HasFunFact() {
			fact, err := r.Render(*card.FunFact)
			if err != nil {
				return nil, fmt.Errorf("card %d fun fact: %w", i, err)
			}
			out[i].FunFact = &fact
		}
	}
	return out, nil
}
