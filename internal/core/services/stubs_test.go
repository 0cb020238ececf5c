package services

import (
	"context"
	"errors"
	"sync"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

// stubEmbedder returns deterministic vectors derived from text length.
// failures counts down: while positive, calls fail.
type stubEmbedder struct {
	mu       sync.Mutex
	failures int
	calls    int
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

var errEmbedderDown = errors.New("embedding backend down")

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, errEmbedderDown
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubEmbedder) Dimensions() int                { return 3 }
func (s *stubEmbedder) ModelName() string              { return "stub-embedder" }
func (s *stubEmbedder) Ping(ctx context.Context) error { return nil }
func (s *stubEmbedder) Close() error                   { return nil }

// stubIndex serves canned retrieval results.
type stubIndex struct {
	results   []domain.RetrievedFragment
	searchErr error
}

var _ driven.VectorIndex = (*stubIndex)(nil)

func (s *stubIndex) Upsert(ctx context.Context, fragments []domain.Fragment) error { return nil }

func (s *stubIndex) Search(ctx context.Context, query []float32, k int, filenameFilter string) ([]domain.RetrievedFragment, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if k > len(s.results) {
		k = len(s.results)
	}
	return s.results[:k], nil
}

func (s *stubIndex) DeleteByFilename(ctx context.Context, filename string) error { return nil }
func (s *stubIndex) Count(ctx context.Context) (int, error)                      { return len(s.results), nil }
func (s *stubIndex) Close() error                                                { return nil }

// stubLLM answers with canned text or a scripted token stream.
type stubLLM struct {
	mu       sync.Mutex
	answer   string
	tokens   []string
	chatErr  error
	errAfter int  // emit a failing chunk after this many tokens; -1 disables
	endless  bool // keep emitting tokens until ctx is cancelled

	messages [][]driven.ChatMessage
}

var _ driven.LLMService = (*stubLLM)(nil)

func newStubLLM(answer string, tokens ...string) *stubLLM {
	return &stubLLM{answer: answer, tokens: tokens, errAfter: -1}
}

func (s *stubLLM) record(messages []driven.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages)
}

func (s *stubLLM) lastUserContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	last := s.messages[len(s.messages)-1]
	for _, msg := range last {
		if msg.Role == "user" {
			return msg.Content
		}
	}
	return ""
}

func (s *stubLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	s.record(messages)
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.answer, nil
}

func (s *stubLLM) ChatStream(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (<-chan driven.StreamChunk, error) {
	s.record(messages)
	if s.chatErr != nil {
		return nil, s.chatErr
	}

	chunks := make(chan driven.StreamChunk)
	go func() {
		defer close(chunks)

		if s.endless {
			for i := 0; ; i++ {
				select {
				case <-ctx.Done():
					return
				case chunks <- driven.StreamChunk{Token: "t"}:
				}
			}
		}

		for i, token := range s.tokens {
			if s.errAfter >= 0 && i == s.errAfter {
				s.fail(ctx, chunks)
				return
			}
			select {
			case <-ctx.Done():
				return
			case chunks <- driven.StreamChunk{Token: token}:
			}
		}
		// An errAfter at or past the end of the script still fails the
		// stream, after every scripted token has been delivered.
		if s.errAfter >= 0 {
			s.fail(ctx, chunks)
		}
	}()
	return chunks, nil
}

func (s *stubLLM) fail(ctx context.Context, chunks chan<- driven.StreamChunk) {
	select {
	case <-ctx.Done():
	case chunks <- driven.StreamChunk{Err: errors.New("generation backend down")}:
	}
}

func (s *stubLLM) ModelName() string              { return "stub-llm" }
func (s *stubLLM) Ping(ctx context.Context) error { return nil }
func (s *stubLLM) Close() error                   { return nil }

// fragment builds a retrieved fragment for retrieval stubs.
func fragment(filename, content string, score float64) domain.RetrievedFragment {
	return domain.RetrievedFragment{
		Fragment: domain.Fragment{
			ID:       filename + "-" + content,
			Filename: filename,
			Content:  content,
		},
		Score: score,
	}
}
