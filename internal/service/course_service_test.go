package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/phrazzld/wondercards-api/internal/platform/memory"
	"github.com/phrazzld/wondercards-api/internal/store"
)

// MockCardGenerator mocks the CardGenerator interface
type MockCardGenerator struct {
	mock.Mock
}

func (m *MockCardGenerator) GenerateCards(
	ctx context.Context,
	req domain.GenerationRequest,
) (*generation.Result, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*generation.Result)
	return result, args.Error(1)
}

// MockCardCache mocks the CardCache interface
type MockCardCache struct {
	mock.Mock
}

func (m *MockCardCache) Get(ctx context.Context, req domain.GenerationRequest) ([]domain.Card, bool, error) {
	args := m.Called(ctx, req)
	cards, _ := args.Get(0).([]domain.Card)
	return cards, args.Bool(1), args.Error(2)
}

func (m *MockCardCache) Set(ctx context.Context, req domain.GenerationRequest, cards []domain.Card) error {
	args := m.Called(ctx, req, cards)
	return args.Error(0)
}

func validRequest(t *testing.T) domain.GenerationRequest {
	t.Helper()
	req, err := domain.NewGenerationRequest("Dinosaurs", domain.AgeGroup5To7, domain.CourseLengthQuick)
	require.NoError(t, err)
	return req
}

func someCards(n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		cards[i] = domain.Card{Title: "T-Rex", Content: "It had tiny arms."}
	}
	return cards
}

func newTestService(
	t *testing.T,
	gen CardGenerator,
	cache CardCache,
) (*courseServiceImpl, *memory.CourseStore) {
	t.Helper()
	courses := memory.NewCourseStore(nil)
	svc, err := NewCourseService(gen, cache, courses, nil)
	require.NoError(t, err)
	return svc.(*courseServiceImpl), courses
}

func TestNewCourseService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewCourseService(nil, nil, memory.NewCourseStore(nil), nil)
	assert.Error(t, err)

	_, err = NewCourseService(&MockCardGenerator{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestGenerateCards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cache hit skips generator", func(t *testing.T) {
		t.Parallel()
		req := validRequest(t)
		gen := &MockCardGenerator{}
		cache := &MockCardCache{}
		cache.On("Get", mock.Anything, req).Return(someCards(5), true, nil)

		svc, _ := newTestService(t, gen, cache)
		got, err := svc.GenerateCards(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, SourceCache, got.Source)
		assert.Len(t, got.Cards, 5)
		gen.AssertNotCalled(t, "GenerateCards", mock.Anything, mock.Anything)
	})

	t.Run("cache miss generates and stores", func(t *testing.T) {
		t.Parallel()
		req := validRequest(t)
		cards := someCards(5)
		gen := &MockCardGenerator{}
		gen.On("GenerateCards", mock.Anything, req).
			Return(&generation.Result{Cards: cards, Source: generation.SourceModel, Attempts: 1}, nil)
		cache := &MockCardCache{}
		cache.On("Get", mock.Anything, req).Return(nil, false, nil)
		cache.On("Set", mock.Anything, req, cards).Return(nil)

		svc, _ := newTestService(t, gen, cache)
		got, err := svc.GenerateCards(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, generation.SourceModel, got.Source)
		assert.Equal(t, 1, got.Attempts)
		cache.AssertExpectations(t)
	})

	t.Run("fallback is not cached", func(t *testing.T) {
		t.Parallel()
		req := validRequest(t)
		gen := &MockCardGenerator{}
		gen.On("GenerateCards", mock.Anything, req).
			Return(&generation.Result{Cards: generation.FallbackCards(req), Source: generation.SourceFallback, Attempts: 3}, nil)
		cache := &MockCardCache{}
		cache.On("Get", mock.Anything, req).Return(nil, false, nil)

		svc, _ := newTestService(t, gen, cache)
		got, err := svc.GenerateCards(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, generation.SourceFallback, got.Source)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache errors are not fatal", func(t *testing.T) {
		t.Parallel()
		req := validRequest(t)
		cards := someCards(5)
		gen := &MockCardGenerator{}
		gen.On("GenerateCards", mock.Anything, req).
			Return(&generation.Result{Cards: cards, Source: generation.SourceRepaired, Attempts: 2}, nil)
		cache := &MockCardCache{}
		cache.On("Get", mock.Anything, req).Return(nil, false, errors.New("connection refused"))
		cache.On("Set", mock.Anything, req, cards).Return(errors.New("connection refused"))

		svc, _ := newTestService(t, gen, cache)
		got, err := svc.GenerateCards(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, cards, got.Cards)
	})

	t.Run("nil cache", func(t *testing.T) {
		t.Parallel()
		req := validRequest(t)
		gen := &MockCardGenerator{}
		gen.On("GenerateCards", mock.Anything, req).
			Return(&generation.Result{Cards: someCards(5), Source: generation.SourceModel, Attempts: 1}, nil)

		svc, _ := newTestService(t, gen, nil)
		_, err := svc.GenerateCards(ctx, req)
		require.NoError(t, err)
	})

	t.Run("invalid request never reaches generator", func(t *testing.T) {
		t.Parallel()
		gen := &MockCardGenerator{}
		svc, _ := newTestService(t, gen, nil)

		_, err := svc.GenerateCards(ctx, domain.GenerationRequest{
			Topic: "Dinosaurs", AgeGroup: "3-4", CourseLength: domain.CourseLengthQuick,
		})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		gen.AssertNotCalled(t, "GenerateCards", mock.Anything, mock.Anything)
	})

	t.Run("generator configuration error", func(t *testing.T) {
		t.Parallel()
		req := validRequest(t)
		gen := &MockCardGenerator{}
		gen.On("GenerateCards", mock.Anything, req).
			Return(nil, generation.ErrConfiguration)

		svc, _ := newTestService(t, gen, nil)
		_, err := svc.GenerateCards(ctx, req)
		var svcErr *CourseServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "generate_cards", svcErr.Operation)
		assert.ErrorIs(t, err, generation.ErrConfiguration)
	})
}

func TestSaveCourse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("with supplied cards", func(t *testing.T) {
		t.Parallel()
		gen := &MockCardGenerator{}
		svc, courses := newTestService(t, gen, nil)

		course, err := svc.SaveCourse(ctx, SaveCourseParams{Request: validRequest(t), Cards: someCards(3), Saved: true})
		require.NoError(t, err)
		assert.True(t, course.Saved)
		assert.Len(t, course.Cards, 3)
		gen.AssertNotCalled(t, "GenerateCards", mock.Anything, mock.Anything)

		stored, err := courses.GetByID(ctx, course.ID)
		require.NoError(t, err)
		assert.Equal(t, course.Topic, stored.Topic)
	})

	t.Run("generates missing cards", func(t *testing.T) {
		t.Parallel()
		req := validRequest(t)
		gen := &MockCardGenerator{}
		gen.On("GenerateCards", mock.Anything, req).
			Return(&generation.Result{Cards: someCards(5), Source: generation.SourceModel, Attempts: 1}, nil)
		svc, _ := newTestService(t, gen, nil)

		course, err := svc.SaveCourse(ctx, SaveCourseParams{Request: req})
		require.NoError(t, err)
		assert.Len(t, course.Cards, 5)
		assert.False(t, course.Saved)
		gen.AssertExpectations(t)
	})

	t.Run("invalid card", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &MockCardGenerator{}, nil)

		_, err := svc.SaveCourse(ctx, SaveCourseParams{
			Request: validRequest(t),
			Cards:   []domain.Card{{Title: "", Content: "No title"}},
		})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestCourseLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t, &MockCardGenerator{}, nil)
	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	course, err := svc.SaveCourse(ctx, SaveCourseParams{Request: validRequest(t), Cards: someCards(3)})
	require.NoError(t, err)

	all, err := svc.ListCourses(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	saved, err := svc.ListCourses(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, saved)

	require.NoError(t, svc.SetSaved(ctx, course.ID, true))
	saved, err = svc.ListCourses(ctx, true)
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	updated, err := svc.UpdateProgress(ctx, course.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentCardIndex)
	require.NotNil(t, updated.LastViewedAt)
	assert.Equal(t, fixed, *updated.LastViewedAt)

	_, err = svc.UpdateProgress(ctx, course.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, err, domain.ErrCardIndexOutOfBounds)

	got, err := svc.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentCardIndex)

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))
	_, err = svc.GetCourse(ctx, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.ErrorIs(t, svc.DeleteCourse(ctx, course.ID), ErrCourseNotFound)
	_, err = svc.UpdateProgress(ctx, uuid.New(), 0)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestNewCourseServiceError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewCourseServiceError("op", "msg", nil))
	assert.Same(t, ErrCourseNotFound, NewCourseServiceError("op", "msg", store.ErrCourseNotFound))

	invalid := NewCourseServiceError("op", "msg", store.ErrInvalidEntity)
	assert.ErrorIs(t, invalid, ErrInvalidRequest)
	assert.ErrorIs(t, invalid, store.ErrInvalidEntity)

	cause := errors.New("disk full")
	wrapped := NewCourseServiceError("save_course", "failed to save course", cause)
	var svcErr *CourseServiceError
	require.ErrorAs(t, wrapped, &svcErr)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "course service save_course failed: failed to save course: disk full", wrapped.Error())
}
