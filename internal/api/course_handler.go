package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/wondercards-api/internal/api/shared"
	"github.com/phrazzld/wondercards-api/internal/content"
	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
	"github.com/phrazzld/wondercards-api/internal/service"
)

// formatHTML is the ?format value that renders card text to HTML.
const formatHTML = "html"

// CourseHandler handles card generation and course HTTP requests.
type CourseHandler struct {
	courseService service.CourseService
	renderer      *content.Renderer
	logger        *slog.Logger
}

// NewCourseHandler creates a new CourseHandler. renderer may be nil, in
// which case ?format=html is ignored.
func NewCourseHandler(
	courseService service.CourseService,
	renderer *content.Renderer,
	logger *slog.Logger,
) *CourseHandler {
	if courseService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("courseService cannot be nil for CourseHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CourseHandler{
		courseService: courseService,
		renderer:      renderer,
		logger:        logger.With(slog.String("component", "course_handler")),
	}
}

// GenerateCards handles POST /api/generate-cards requests.
// Generation never fails outright: when the model cannot produce usable
// cards the response carries placeholder cards with source "fallback".
func (h *CourseHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req GenerateCardsRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	genReq, err := req.ToDomain()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	generated, err := h.courseService.GenerateCards(r.Context(), genReq)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	cards, ok := h.render(w, r, generated.Cards)
	if !ok {
		return
	}

	log.Debug("cards generated",
		slog.String("source", string(generated.Source)),
		slog.Int("card_count", len(cards)))

	shared.RespondWithJSON(w, r, http.StatusOK, GenerateCardsResponse{
		Cards:  cardsToPayload(cards),
		Source: string(generated.Source),
	})
}

// CreateCourse handles POST /api/courses requests.
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	genReq, err := GenerateCardsRequest{
		Topic:        req.Topic,
		AgeGroup:     req.AgeGroup,
		CourseLength: req.CourseLength,
	}.ToDomain()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	course, err := h.courseService.SaveCourse(r.Context(), service.SaveCourseParams{
		Request: genReq,
		Cards:   payloadToCards(req.Cards),
		Saved:   req.Saved,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, courseToResponse(course))
}

// ListCourses handles GET /api/courses requests. ?saved=true restricts the
// listing to saved courses.
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	savedOnly := false
	if raw := r.URL.Query().Get("saved"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid saved parameter", err)
			return
		}
		savedOnly = parsed
	}

	courses, err := h.courseService.ListCourses(r.Context(), savedOnly)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := CourseListResponse{Courses: make([]CourseResponse, 0, len(courses))}
	for _, c := range courses {
		resp.Courses = append(resp.Courses, courseToResponse(c))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetCourse handles GET /api/courses/{id} requests.
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathCourseID(w, r)
	if !ok {
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == formatHTML {
		cards, ok := h.render(w, r, course.Cards)
		if !ok {
			return
		}
		course.Cards = cards
	}

	shared.RespondWithJSON(w, r, http.StatusOK, courseToResponse(course))
}

// UpdateProgress handles PUT /api/courses/{id}/progress requests.
func (h *CourseHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathCourseID(w, r)
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	course, err := h.courseService.UpdateProgress(r.Context(), id, *req.CurrentCardIndex)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, courseToResponse(course))
}

// UpdateSaved handles PUT /api/courses/{id}/saved requests.
func (h *CourseHandler) UpdateSaved(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathCourseID(w, r)
	if !ok {
		return
	}

	var req UpdateSavedRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.courseService.SetSaved(r.Context(), id, *req.Saved); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCourse handles DELETE /api/courses/{id} requests.
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathCourseID(w, r)
	if !ok {
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathCourseID parses the {id} URL parameter, writing a 400 when it is
// missing or not a UUID.
func (h *CourseHandler) pathCourseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || id == uuid.Nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid course ID", err)
		return uuid.Nil, false
	}
	return id, true
}

// render converts card text to HTML when ?format=html is set.
func (h *CourseHandler) render(w http.ResponseWriter, r *http.Request, cards []domain.Card) ([]domain.Card, bool) {
	if h.renderer == nil || r.URL.Query().Get("format") != formatHTML {
		return cards, true
	}
	rendered, err := h.renderer.RenderCards(cards)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to render cards", err)
		return nil, false
	}
	return rendered, true
}

func (h *CourseHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
