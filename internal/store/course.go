package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wondercards-api/internal/domain"
)

// DefaultListLimit caps List results when the filter sets no limit.
const DefaultListLimit = 100

// CourseFilter narrows a course listing. Results are newest first.
type CourseFilter struct {
	SavedOnly bool
	Limit     int
	Offset    int
}

// EffectiveLimit returns Limit, or DefaultListLimit when Limit is not positive.
func (f CourseFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// CourseStore defines the interface for course persistence.
type CourseStore interface {
	// Create saves a new course. The course is validated first; invalid
	// courses return an error wrapping ErrInvalidEntity.
	Create(ctx context.Context, course *domain.Course) error

	// GetByID retrieves a course by its unique ID.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// List returns courses matching filter, newest first.
	List(ctx context.Context, filter CourseFilter) ([]*domain.Course, error)

	// UpdateProgress moves the course's reading position and stamps its
	// last-viewed time, returning the updated course. The index is checked
	// against the stored card count atomically.
	// Returns ErrCourseNotFound if the course does not exist.
	UpdateProgress(ctx context.Context, id uuid.UUID, index int, viewedAt time.Time) (*domain.Course, error)

	// SetSaved marks or unmarks a course as saved.
	// Returns ErrCourseNotFound if the course does not exist.
	SetSaved(ctx context.Context, id uuid.UUID, saved bool) error

	// Delete removes a course.
	// Returns ErrCourseNotFound if the course does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
