package domain

import (
	"errors"
	"strings"
)

// ErrCardTitleEmpty is returned when a card has a blank title.
var ErrCardTitleEmpty = errors.New("card title cannot be empty")

// Card is a single learning unit shown to the child. Content may contain
// simple markup. FunFact is nil when the model did not supply one and is
// serialized as an explicit null.
type Card struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	FunFact *string `json:"funFact"`
}

// NewCard creates a card with an optional fun fact. A blank fun fact is
// stored as nil.
func NewCard(title, content, funFact string) (Card, error) {
	c := Card{Title: title, Content: content}
	if strings.TrimSpace(funFact) != "" {
		c.FunFact = &funFact
	}
	if err := c.Validate(); err != nil {
		return Card{}, err
	}
	return c, nil
}

// Validate checks if the Card has valid data.
func (c Card) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrCardTitleEmpty
	}
	return nil
}

// HasFunFact reports whether the card carries a fun fact.
func (c Card) HasFunFact() bool {
	return c.FunFact != nil
}
