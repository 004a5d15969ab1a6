package generation

import (
	"fmt"

	"github.com/phrazzld/wondercards-api/internal/domain"
)

// fallbackCount is used when the course length carries no card count.
const fallbackCount = 5

// FallbackContent is the body of every placeholder card.
const FallbackContent = "This is a placeholder card for %q created when the card generator was unavailable. " +
	"Please try again later to get freshly generated content."

// FallbackCards returns the request's target number of placeholder cards,
// titled "<topic> – Part i". It makes no external calls and cannot fail.
func FallbackCards(req domain.GenerationRequest) []domain.Card {
	count := req.TargetCount()
	if count <= 0 {
		count = fallbackCount
	}

	content := fmt.Sprintf(FallbackContent, req.Topic)
	cards := make([]domain.Card, count)
	for i := range cards {
		cards[i] = domain.Card{
			Title:   fmt.Sprintf("%s – Part %d", req.Topic, i+1),
			Content: content,
		}
	}
	return cards
}
