package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
	"github.com/arkanlabs/docchat/internal/core/ports/driving"
	"github.com/arkanlabs/docchat/internal/logger"
)

// Verify interface compliance at compile time
var _ driving.AnswerService = (*AnswerOrchestrator)(nil)

// retrievalAttempts bounds retries against a flaky retrieval backend.
const retrievalAttempts = 3

// retrievalBackoff is the initial wait between retrieval attempts; it
// doubles per attempt.
const retrievalBackoff = 200 * time.Millisecond

// AnswerOrchestrator drives one query through its full lifecycle:
// resolve the session, retrieve grounding fragments, compose the
// prompt, generate the answer, commit the exchange.
type AnswerOrchestrator struct {
	sessions *SessionStore
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	settings domain.Settings
}

// NewAnswerOrchestrator wires the query pipeline.
func NewAnswerOrchestrator(
	sessions *SessionStore,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	settings domain.Settings,
) *AnswerOrchestrator {
	return &AnswerOrchestrator{
		sessions: sessions,
		embedder: embedder,
		index:    index,
		llm:      llm,
		settings: settings,
	}
}

// Ask runs one complete query and returns the finished answer.
func (o *AnswerOrchestrator) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}

	sessionID, err := o.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	window, err := o.sessions.Window(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fragments, err := o.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	messages := buildMessages(window, fragments, req.Question)
	logger.Debug("prompt composed: %d history exchange(s), %d fragment(s)", len(window), len(fragments))

	genCtx, cancel := context.WithTimeout(ctx, o.settings.ServiceTimeout)
	defer cancel()

	text, err := o.llm.Chat(genCtx, messages, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	answer := &domain.Answer{
		Question:  req.Question,
		Text:      text,
		Sources:   uniqueSources(fragments),
		SessionID: sessionID,
		Timestamp: time.Now(),
	}

	if err := o.commit(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// AskStream runs the same query with incremental token delivery.
// Validation and session resolution happen before the stream starts so
// a bad request fails as an error return, not a half-open stream.
func (o *AnswerOrchestrator) AskStream(ctx context.Context, req domain.AskRequest) (<-chan domain.StreamEvent, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}

	sessionID, err := o.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.StreamEvent)
	go o.stream(ctx, req, sessionID, events)
	return events, nil
}

// stream produces the event sequence for one query: session, tokens,
// sources, done. Any failure ends the stream with an error event and no
// history commit; a cancelled ctx ends it silently with no commit.
func (o *AnswerOrchestrator) stream(ctx context.Context, req domain.AskRequest, sessionID string, events chan<- domain.StreamEvent) {
	defer close(events)

	if !o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventSession, SessionID: sessionID}) {
		return
	}

	window, err := o.sessions.Window(ctx, sessionID)
	if err != nil {
		o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventError, Err: err})
		return
	}

	fragments, err := o.retrieve(ctx, req)
	if err != nil {
		o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventError, Err: err})
		return
	}

	messages := buildMessages(window, fragments, req.Question)

	genCtx, cancel := context.WithTimeout(ctx, o.settings.ServiceTimeout)
	defer cancel()

	chunks, err := o.llm.ChatStream(genCtx, messages, driven.ChatOptions{})
	if err != nil {
		o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventError, Err: fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)})
		return
	}

	var answer strings.Builder
	for {
		select {
		case <-ctx.Done():
			// Caller is gone. The partial answer is discarded, never committed.
			logger.Debug("stream cancelled for session %s, partial answer discarded", sessionID)
			return
		case chunk, ok := <-chunks:
			if !ok {
				o.finishStream(ctx, req, sessionID, answer.String(), fragments, events)
				return
			}
			if chunk.Err != nil {
				o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventError, Err: fmt.Errorf("%w: %v", domain.ErrGenerationFailed, chunk.Err)})
				return
			}
			answer.WriteString(chunk.Token)
			if !o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventToken, Token: chunk.Token}) {
				return
			}
		}
	}
}

// finishStream commits the completed exchange and emits the terminal
// sources and done events.
func (o *AnswerOrchestrator) finishStream(ctx context.Context, req domain.AskRequest, sessionID, text string, fragments []domain.RetrievedFragment, events chan<- domain.StreamEvent) {
	sources := uniqueSources(fragments)

	if !o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventSources, Sources: sources}) {
		return
	}

	answer := &domain.Answer{
		Question:  req.Question,
		Text:      text,
		Sources:   sources,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
	if err := o.commit(ctx, answer); err != nil {
		o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventError, Err: err})
		return
	}

	o.send(ctx, events, domain.StreamEvent{Type: domain.StreamEventDone, SessionID: sessionID})
}

// Search returns raw retrieval results without a generation step.
func (o *AnswerOrchestrator) Search(ctx context.Context, query string, topK int, filenameFilter string) ([]domain.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if topK < 0 {
		return nil, fmt.Errorf("%w: top_k must not be negative", domain.ErrInvalidInput)
	}
	if topK == 0 {
		topK = o.settings.TopK
	}

	fragments, err := o.searchOnce(ctx, query, topK, filenameFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalFailed, err)
	}

	hits := make([]domain.SearchHit, len(fragments))
	for i, frag := range fragments {
		hits[i] = domain.SearchHit{
			FragmentID: frag.ID,
			Filename:   frag.Filename,
			Content:    frag.Content,
			Score:      frag.Score,
		}
	}
	return hits, nil
}

func (o *AnswerOrchestrator) validate(req domain.AskRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if req.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// retrieve embeds the question and queries the index, retrying
// transient failures a bounded number of times with doubling backoff.
// Exhausted retries surface as a retrieval failure.
func (o *AnswerOrchestrator) retrieve(ctx context.Context, req domain.AskRequest) ([]domain.RetrievedFragment, error) {
	topK := req.TopK
	if topK == 0 {
		topK = o.settings.TopK
	}

	var lastErr error
	backoff := retrievalBackoff
	for attempt := 1; attempt <= retrievalAttempts; attempt++ {
		fragments, err := o.searchOnce(ctx, req.Question, topK, req.FilenameFilter)
		if err == nil {
			logger.Debug("retrieved %d fragment(s) on attempt %d", len(fragments), attempt)
			return fragments, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		logger.Warn("retrieval attempt %d/%d failed: %v", attempt, retrievalAttempts, err)

		if attempt < retrievalAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalFailed, lastErr)
}

func (o *AnswerOrchestrator) searchOnce(ctx context.Context, query string, topK int, filenameFilter string) ([]domain.RetrievedFragment, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.settings.ServiceTimeout)
	defer cancel()

	vector, err := o.embedder.Embed(callCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	fragments, err := o.index.Search(callCtx, vector, topK, filenameFilter)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return fragments, nil
}

// commit records the finished exchange in the session's history. A
// session swept mid-query drops the exchange inside Append.
func (o *AnswerOrchestrator) commit(ctx context.Context, answer *domain.Answer) error {
	return o.sessions.Append(ctx, answer.SessionID, domain.Exchange{
		Question:  answer.Question,
		Answer:    answer.Text,
		Sources:   answer.Sources,
		Timestamp: answer.Timestamp,
	})
}

// send delivers one event unless the caller has gone away.
func (o *AnswerOrchestrator) send(ctx context.Context, events chan<- domain.StreamEvent, ev domain.StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}
