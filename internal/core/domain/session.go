package domain

import "time"

// Session is an isolated, expiring conversational context belonging to
// one caller. Sessions are owned exclusively by the session store;
// everything outside the store addresses a session by its id.
type Session struct {
	// ID is the opaque unique identifier (a generated UUID).
	ID string

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// LastActivity is the last time a question was asked on this session.
	// History reads deliberately do not bump it.
	LastActivity time.Time

	// ContextWindow is how many recent exchanges are fed back into the
	// prompt for this session. Zero means the configured default.
	ContextWindow int
}

// Exchange is one recorded question/answer pair. Immutable once recorded.
type Exchange struct {
	// Question is the caller's question text.
	Question string `json:"question"`

	// Answer is the full generated answer text.
	Answer string `json:"answer"`

	// Sources lists the filenames of the documents used for grounding.
	Sources []string `json:"sources"`

	// Timestamp is when the exchange was committed to history.
	Timestamp time.Time `json:"timestamp"`
}

// SessionInfo is an observability snapshot of one live session.
type SessionInfo struct {
	// ID is the session identifier.
	ID string `json:"session_id"`

	// Exchanges is the number of recorded exchanges.
	Exchanges int `json:"total_exchanges"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`

	// LastActivity is the last question-asking activity.
	LastActivity time.Time `json:"last_activity"`
}

// ConversationExport is the serialisable form of one session's full history.
type ConversationExport struct {
	SessionID  string     `json:"session_id"`
	History    []Exchange `json:"history"`
	ExportedAt time.Time  `json:"exported_at"`
	Total      int        `json:"total_exchanges"`
}
