package api

import (
	"strings"
	"time"

	"github.com/phrazzld/wondercards-api/internal/domain"
)

// GenerateCardsRequest is the body of POST /api/generate-cards.
type GenerateCardsRequest struct {
	Topic        string `json:"topic"        validate:"required,max=200"`
	AgeGroup     string `json:"ageGroup"     validate:"required,oneof=5-7 8-10 11-12"`
	CourseLength string `json:"courseLength" validate:"required,oneof=quick standard deep"`
}

// ToDomain converts the request into a validated domain request.
func (r GenerateCardsRequest) ToDomain() (domain.GenerationRequest, error) {
	ageGroup, err := domain.ParseAgeGroup(r.AgeGroup)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	length, err := domain.ParseCourseLength(r.CourseLength)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	return domain.NewGenerationRequest(r.Topic, ageGroup, length)
}

// CardPayload is a card as sent and received over the API.
type CardPayload struct {
	Title   string  `json:"title"   validate:"required"`
	Content string  `json:"content"`
	FunFact *string `json:"funFact"`
}

// GenerateCardsResponse is the body returned by POST /api/generate-cards.
type GenerateCardsResponse struct {
	Cards  []CardPayload `json:"cards"`
	Source string        `json:"source"`
}

// CreateCourseRequest is the body of POST /api/courses. Cards are
// generated when omitted.
type CreateCourseRequest struct {
	Topic        string        `json:"topic"        validate:"required,max=200"`
	AgeGroup     string        `json:"ageGroup"     validate:"required,oneof=5-7 8-10 11-12"`
	CourseLength string        `json:"courseLength" validate:"required,oneof=quick standard deep"`
	Cards        []CardPayload `json:"cards"        validate:"omitempty,dive"`
	Saved        bool          `json:"saved"`
}

// UpdateProgressRequest is the body of PUT /api/courses/{id}/progress.
type UpdateProgressRequest struct {
	CurrentCardIndex *int `json:"currentCardIndex" validate:"required,gte=0"`
}

// UpdateSavedRequest is the body of PUT /api/courses/{id}/saved.
type UpdateSavedRequest struct {
	Saved *bool `json:"saved" validate:"required"`
}

// CourseResponse is a course as returned by the API.
type CourseResponse struct {
	ID               string        `json:"id"`
	Topic            string        `json:"topic"`
	AgeGroup         string        `json:"ageGroup"`
	CourseLength     string        `json:"courseLength"`
	Cards            []CardPayload `json:"cards"`
	Saved            bool          `json:"saved"`
	CreatedAt        time.Time     `json:"createdAt"`
	LastViewedAt     *time.Time    `json:"lastViewedAt"`
	CurrentCardIndex int           `json:"currentCardIndex"`
}

// CourseListResponse is the body returned by GET /api/courses.
type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func cardsToPayload(cards []domain.Card) []CardPayload {
	out := make([]CardPayload, len(cards))
	for i, c := range cards {
		out[i] = CardPayload{Title: c.Title, Content: c.Content, FunFact: c.FunFact}
	}
	return out
}

func payloadToCards(payload []CardPayload) []domain.Card {
	out := make([]domain.Card, 0, len(payload))
	for _, p := range payload {
		fact := p.FunFact
		if fact != nil && strings.TrimSpace(*fact) == "" {
			fact = nil
		}
		out = append(out, domain.Card{Title: p.Title, Content: p.Content, FunFact: fact})
	}
	return out
}

func courseToResponse(c *domain.Course) CourseResponse {
	return CourseResponse{
		ID:               c.ID.String(),
		Topic:            c.Topic,
		AgeGroup:         string(c.AgeGroup),
		CourseLength:     string(c.CourseLength),
		Cards:            cardsToPayload(c.Cards),
		Saved:            c.Saved,
		CreatedAt:        c.CreatedAt,
		LastViewedAt:     c.LastViewedAt,
		CurrentCardIndex: c.CurrentCardIndex,
	}
}
