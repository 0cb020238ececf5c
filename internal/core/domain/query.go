package domain

import "time"

// AskRequest is the caller-facing query contract.
type AskRequest struct {
	// Question is the question text. Must be non-empty.
	Question string `json:"question"`

	// SessionID continues an existing conversation when set.
	// Empty means create a new session.
	SessionID string `json:"session_id,omitempty"`

	// TopK is the number of fragments to retrieve. Zero means the
	// configured default; negative values are invalid.
	TopK int `json:"top_k,omitempty"`

	// FilenameFilter restricts retrieval to one document when set.
	FilenameFilter string `json:"filename_filter,omitempty"`

	// Stream requests incremental token delivery.
	Stream bool `json:"stream,omitempty"`
}

// Answer is the complete result of one query.
type Answer struct {
	// Question echoes the caller's question.
	Question string `json:"question"`

	// Text is the full generated answer.
	Text string `json:"answer"`

	// Sources lists the filenames used for grounding.
	Sources []string `json:"sources"`

	// SessionID identifies the conversation the exchange was recorded in.
	SessionID string `json:"session_id"`

	// Timestamp is when the answer completed.
	Timestamp time.Time `json:"timestamp"`
}

// StreamEventType discriminates events on an answer stream.
type StreamEventType string

// Stream event types, in the order a successful stream emits them:
// one session event, zero or more token events, one sources event,
// then a terminal done event. A failed stream ends with an error event
// instead; the stream never closes without a terminal event.
const (
	StreamEventSession StreamEventType = "session"
	StreamEventToken   StreamEventType = "content"
	StreamEventSources StreamEventType = "source"
	StreamEventDone    StreamEventType = "done"
	StreamEventError   StreamEventType = "error"
)

// StreamEvent is one event on a streamed answer.
type StreamEvent struct {
	// Type discriminates the event.
	Type StreamEventType `json:"type"`

	// Token carries one generated token for token events.
	Token string `json:"token,omitempty"`

	// Sources carries the grounding filenames for sources events.
	Sources []string `json:"sources,omitempty"`

	// SessionID is set on session and done events.
	SessionID string `json:"session_id,omitempty"`

	// Err is set on error events.
	Err error `json:"-"`
}

// SearchHit is one raw retrieval result exposed by the search surface,
// without any generation step.
type SearchHit struct {
	FragmentID string  `json:"doc_id"`
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Score      float64 `json:"similarity_score"`
}
