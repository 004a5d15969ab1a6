// Package memory provides an in-process store.CourseStore used when no
// database is configured and in service and API tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
	"github.com/phrazzld/wondercards-api/internal/store"
)

// CourseStore keeps courses in a map guarded by a RWMutex. Stored courses
// are deep-copied on the way in and out so callers cannot mutate them.
type CourseStore struct {
	mu      sync.RWMutex
	courses map[uuid.UUID]*domain.Course
	logger  *slog.Logger
}

var _ store.CourseStore = (*CourseStore)(nil)

// NewCourseStore creates an empty in-memory course store.
func NewCourseStore(logger *slog.Logger) *CourseStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseStore{
		courses: make(map[uuid.UUID]*domain.Course),
		logger:  logger.With(slog.String("component", "memory_course_store")),
	}
}

// Create implements store.CourseStore.Create
func (s *CourseStore) Create(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		log.Warn("course validation failed during create",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[course.ID]; exists {
		return fmt.Errorf("%w: course %s", store.ErrDuplicate, course.ID)
	}
	s.courses[course.ID] = cloneCourse(course)

	log.Info("course created successfully",
		slog.String("course_id", course.ID.String()),
		slog.Int("card_count", len(course.Cards)))
	return nil
}

// GetByID implements store.CourseStore.GetByID
func (s *CourseStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return cloneCourse(course), nil
}

// List implements store.CourseStore.List
func (s *CourseStore) List(_ context.Context, filter store.CourseFilter) ([]*domain.Course, error) {
	s.mu.RLock()
	matched := make([]*domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if filter.SavedOnly && !c.Saved {
			continue
		}
		matched = append(matched, cloneCourse(c))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*domain.Course{}, nil
	}
	end := offset + filter.EffectiveLimit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// UpdateProgress implements store.CourseStore.UpdateProgress
func (s *CourseStore) UpdateProgress(
	_ context.Context,
	id uuid.UUID,
	index int,
	viewedAt time.Time,
) (*domain.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	if err := course.UpdateProgress(index, viewedAt); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return cloneCourse(course), nil
}

// SetSaved implements store.CourseStore.SetSaved
func (s *CourseStore) SetSaved(_ context.Context, id uuid.UUID, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[id]
	if !ok {
		return store.ErrCourseNotFound
	}
	course.Saved = saved
	return nil
}

// Delete implements store.CourseStore.Delete
func (s *CourseStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return store.ErrCourseNotFound
	}
	delete(s.courses, id)

	logger.FromContextOrDefault(ctx, s.logger).Info("course deleted",
		slog.String("course_id", id.String()))
	return nil
}

func cloneCourse(c *domain.Course) *domain.Course {
	out := *c
	out.Cards = make([]domain.Card, len(c.Cards))
	for i, card := range c.Cards {
		out.Cards[i] = card
		if card.FunFact != nil {
			fact := *card.FunFact
			out.Cards[i].FunFact = &fact
		}
	}
	if c.LastViewedAt != nil {
		viewed := *c.LastViewedAt
		out.LastViewedAt = &viewed
	}
	return &out
}
