package domain

import (
	"fmt"
	"time"
)

// Default configuration values for the conversational pipeline.
const (
	// DefaultSessionTimeout is how long an idle session survives.
	DefaultSessionTimeout = time.Hour

	// DefaultContextWindow is how many recent exchanges ground a follow-up.
	DefaultContextWindow = 3

	// DefaultMaxHistory bounds the stored exchanges per session.
	// Older exchanges are trimmed; the window never exceeds this.
	DefaultMaxHistory = 10

	// DefaultChunkSize is the fragment size in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the shared region between consecutive fragments.
	DefaultChunkOverlap = 200

	// DefaultTopK is the number of fragments retrieved per question.
	DefaultTopK = 3

	// DefaultSweepInterval is how often the expiry sweep runs.
	DefaultSweepInterval = time.Minute

	// DefaultServiceTimeout bounds each external-service call.
	DefaultServiceTimeout = 120 * time.Second
)

// Settings holds the runtime configuration of the pipeline.
type Settings struct {
	// SessionTimeout is the inactivity duration after which the expiry
	// sweep removes a session.
	SessionTimeout time.Duration

	// ContextWindow is the default number of recent exchanges read back
	// when building a prompt. Sessions may override it individually.
	ContextWindow int

	// MaxHistory bounds the exchanges kept in storage per session.
	MaxHistory int

	// ChunkSize is the fragment size in characters.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive fragments.
	ChunkOverlap int

	// TopK is the default retrieval result count.
	TopK int

	// SweepInterval is the expiry sweep period.
	SweepInterval time.Duration

	// ServiceTimeout bounds each embedding, retrieval and generation call.
	ServiceTimeout time.Duration
}

// DefaultSettings returns the standard pipeline configuration.
func DefaultSettings() Settings {
	return Settings{
		SessionTimeout: DefaultSessionTimeout,
		ContextWindow:  DefaultContextWindow,
		MaxHistory:     DefaultMaxHistory,
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		TopK:           DefaultTopK,
		SweepInterval:  DefaultSweepInterval,
		ServiceTimeout: DefaultServiceTimeout,
	}
}

// Validate checks the settings for internal consistency.
func (s Settings) Validate() error {
	if s.SessionTimeout <= 0 {
		return fmt.Errorf("%w: session timeout must be positive", ErrInvalidInput)
	}
	if s.ContextWindow <= 0 {
		return fmt.Errorf("%w: context window must be positive", ErrInvalidInput)
	}
	if s.MaxHistory < s.ContextWindow {
		return fmt.Errorf("%w: max history must be at least the context window", ErrInvalidInput)
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be non-negative and smaller than chunk size", ErrInvalidInput)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidInput)
	}
	return nil
}
