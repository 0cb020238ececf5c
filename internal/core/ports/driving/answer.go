package driving

import (
	"context"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// AnswerService answers questions grounded in ingested documents.
type AnswerService interface {
	// Ask runs one complete query: resolve session, retrieve fragments,
	// compose the prompt, generate the answer and commit the exchange.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)

	// AskStream runs the same query but delivers the answer incrementally.
	// The returned channel emits a session event, ordered token events,
	// a sources event and a terminal done event; failures end the stream
	// with an error event instead. Cancelling ctx stops generation and
	// prevents the exchange from being committed.
	AskStream(ctx context.Context, req domain.AskRequest) (<-chan domain.StreamEvent, error)

	// Search returns raw retrieval results without a generation step.
	Search(ctx context.Context, query string, topK int, filenameFilter string) ([]domain.SearchHit, error)
}
