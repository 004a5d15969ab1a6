package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Course validation errors
var (
	ErrEmptyCourseID        = errors.New("course ID cannot be empty")
	ErrEmptyCourseCards     = errors.New("course must contain at least one card")
	ErrCardIndexOutOfBounds = errors.New("card index out of bounds")
)

// Course is a persisted collection of cards on one topic. CurrentCardIndex
// tracks how far the child has read.
type Course struct {
	ID               uuid.UUID    `json:"id"`
	Topic            string       `json:"topic"`
	AgeGroup         AgeGroup     `json:"ageGroup"`
	CourseLength     CourseLength `json:"courseLength"`
	Cards            []Card       `json:"cards"`
	Saved            bool         `json:"saved"`
	CreatedAt        time.Time    `json:"createdAt"`
	LastViewedAt     *time.Time   `json:"lastViewedAt"`
	CurrentCardIndex int          `json:"currentCardIndex"`
}

// NewCourse creates a Course from a generation request and its cards.
// It assigns a new ID and creation timestamp.
func NewCourse(req GenerationRequest, cards []Card, saved bool) (*Course, error) {
	course := &Course{
		ID:           uuid.New(),
		Topic:        req.Topic,
		AgeGroup:     req.AgeGroup,
		CourseLength: req.CourseLength,
		Cards:        cards,
		Saved:        saved,
		CreatedAt:    time.Now().UTC(),
	}

	if err := course.Validate(); err != nil {
		return nil, err
	}

	return course, nil
}

// Validate checks if the Course has valid data.
func (c *Course) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCourseID
	}

	req := GenerationRequest{Topic: c.Topic, AgeGroup: c.AgeGroup, CourseLength: c.CourseLength}
	if err := req.Validate(); err != nil {
		return err
	}

	if len(c.Cards) == 0 {
		return ErrEmptyCourseCards
	}

	for i, card := range c.Cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("card %d: %w", i, err)
		}
	}

	if c.CurrentCardIndex < 0 || c.CurrentCardIndex >= len(c.Cards) {
		return ErrCardIndexOutOfBounds
	}

	return nil
}

// UpdateProgress moves the reading position and stamps LastViewedAt.
func (c *Course) UpdateProgress(index int, now time.Time) error {
	if index < 0 || index >= len(c.Cards) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrCardIndexOutOfBounds, index, len(c.Cards))
	}
	c.CurrentCardIndex = index
	viewed := now.UTC()
	c.LastViewedAt = &viewed
	return nil
}
