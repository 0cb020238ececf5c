package driven

import "context"

// LLMService provides answer generation for grounded prompts.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Ollama (local models)
type LLMService interface {
	// Chat produces a complete answer for a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ChatStream produces the answer incrementally. The returned channel
	// yields tokens in generation order and is closed after the final
	// token or on error. The sequence is finite and not restartable.
	// Cancelling ctx stops generation and closes the channel.
	ChatStream(ctx context.Context, messages []ChatMessage, opts ChatOptions) (<-chan StreamChunk, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures generation behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// StreamChunk is one increment of a streamed generation.
// Exactly one of Token or Err is meaningful; a chunk with Err set is
// always the last one delivered before the channel closes.
type StreamChunk struct {
	// Token is the next piece of generated text.
	Token string

	// Err reports a mid-stream generation failure.
	Err error
}
