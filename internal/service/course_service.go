package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
	"github.com/phrazzld/wondercards-api/internal/store"
)

// SourceCache marks cards served from the card cache.
const SourceCache generation.Source = "cache"

// CardGenerator produces cards for a request. *generation.Pipeline implements it.
type CardGenerator interface {
	GenerateCards(ctx context.Context, req domain.GenerationRequest) (*generation.Result, error)
}

// CardCache stores generated card sets. A nil CardCache disables caching.
type CardCache interface {
	Get(ctx context.Context, req domain.GenerationRequest) ([]domain.Card, bool, error)
	Set(ctx context.Context, req domain.GenerationRequest, cards []domain.Card) error
}

// GeneratedCards is the result of CourseService.GenerateCards.
type GeneratedCards struct {
	Cards    []domain.Card
	Source   generation.Source
	Attempts int
}

// SaveCourseParams describes a course to persist. When Cards is empty the
// cards are generated from Request first.
type SaveCourseParams struct {
	Request domain.GenerationRequest
	Cards   []domain.Card
	Saved   bool
}

// CourseService provides card generation and course operations.
type CourseService interface {
	// GenerateCards returns cards for req, from the cache when possible.
	GenerateCards(ctx context.Context, req domain.GenerationRequest) (*GeneratedCards, error)

	// SaveCourse creates a course, generating its cards when none are supplied.
	SaveCourse(ctx context.Context, params SaveCourseParams) (*domain.Course, error)

	// ListCourses returns courses newest first, optionally only saved ones.
	ListCourses(ctx context.Context, savedOnly bool) ([]*domain.Course, error)

	// GetCourse retrieves a course by ID.
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// UpdateProgress records the card the reader is on.
	UpdateProgress(ctx context.Context, id uuid.UUID, index int) (*domain.Course, error)

	// SetSaved marks or unmarks a course as saved.
	SetSaved(ctx context.Context, id uuid.UUID, saved bool) error

	// DeleteCourse removes a course.
	DeleteCourse(ctx context.Context, id uuid.UUID) error
}

type courseServiceImpl struct {
	generator CardGenerator
	cache     CardCache
	courses   store.CourseStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewCourseService creates a CourseService. cache may be nil.
func NewCourseService(
	generator CardGenerator,
	cache CardCache,
	courses store.CourseStore,
	logger *slog.Logger,
) (CourseService, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if courses == nil {
		return nil, fmt.Errorf("course store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &courseServiceImpl{
		generator: generator,
		cache:     cache,
		courses:   courses,
		logger:    logger.With(slog.String("component", "course_service")),
		now:       time.Now,
	}, nil
}

// GenerateCards implements CourseService. Fallback cards are never cached,
// and cache failures only cost a log line.
func (s *courseServiceImpl) GenerateCards(
	ctx context.Context,
	req domain.GenerationRequest,
) (*GeneratedCards, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if s.cache != nil {
		cards, ok, err := s.cache.Get(ctx, req)
		switch {
		case err != nil:
			log.Warn("card cache lookup failed", slog.String("error", err.Error()))
		case ok:
			return &GeneratedCards{Cards: cards, Source: SourceCache}, nil
		}
	}

	result, err := s.generator.GenerateCards(ctx, req)
	if err != nil {
		return nil, NewCourseServiceError("generate_cards", "card generation failed", err)
	}

	if s.cache != nil && !result.IsFallback() {
		if err := s.cache.Set(ctx, req, result.Cards); err != nil {
			log.Warn("card cache store failed", slog.String("error", err.Error()))
		}
	}

	return &GeneratedCards{Cards: result.Cards, Source: result.Source, Attempts: result.Attempts}, nil
}

// SaveCourse implements CourseService.
func (s *courseServiceImpl) SaveCourse(ctx context.Context, params SaveCourseParams) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cards := params.Cards
	if len(cards) == 0 {
		generated, err := s.GenerateCards(ctx, params.Request)
		if err != nil {
			return nil, err
		}
		cards = generated.Cards
	}

	course, err := domain.NewCourse(params.Request, cards, params.Saved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := s.courses.Create(ctx, course); err != nil {
		log.Error("failed to save course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return nil, NewCourseServiceError("save_course", "failed to save course", err)
	}

	log.Info("course saved",
		slog.String("course_id", course.ID.String()),
		slog.Int("card_count", len(course.Cards)),
		slog.Bool("saved", course.Saved))
	return course, nil
}

// ListCourses implements CourseService.
func (s *courseServiceImpl) ListCourses(ctx context.Context, savedOnly bool) ([]*domain.Course, error) {
	courses, err := s.courses.List(ctx, store.CourseFilter{SavedOnly: savedOnly})
	if err != nil {
		return nil, NewCourseServiceError("list_courses", "failed to list courses", err)
	}
	return courses, nil
}

// GetCourse implements CourseService.
func (s *courseServiceImpl) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, NewCourseServiceError("get_course", "failed to get course", err)
	}
	return course, nil
}

// UpdateProgress implements CourseService.
func (s *courseServiceImpl) UpdateProgress(ctx context.Context, id uuid.UUID, index int) (*domain.Course, error) {
	course, err := s.courses.UpdateProgress(ctx, id, index, s.now())
	if err != nil {
		return nil, NewCourseServiceError("update_progress", "failed to update progress", err)
	}
	return course, nil
}

// SetSaved implements CourseService.
func (s *courseServiceImpl) SetSaved(ctx context.Context, id uuid.UUID, saved bool) error {
	if err := s.courses.SetSaved(ctx, id, saved); err != nil {
		return NewCourseServiceError("set_saved", "failed to update saved flag", err)
	}
	return nil
}

// DeleteCourse implements CourseService.
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return NewCourseServiceError("delete_course", "failed to delete course", err)
	}
	return nil
}
