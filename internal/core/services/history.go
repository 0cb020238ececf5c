package services

import (
	"sync"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// ConversationHistory is the ordered, bounded record of exchanges for
// exactly one session. Appends are serialized by an internal mutex so
// concurrent queries on the same session commit in completion order;
// histories of different sessions never contend.
type ConversationHistory struct {
	mu         sync.Mutex
	exchanges  []domain.Exchange
	window     int
	maxHistory int
}

// NewConversationHistory creates an empty history with the given
// default context window and storage bound.
func NewConversationHistory(window, maxHistory int) *ConversationHistory {
	if window <= 0 {
		window = domain.DefaultContextWindow
	}
	if maxHistory < window {
		maxHistory = domain.DefaultMaxHistory
		if maxHistory < window {
			maxHistory = window
		}
	}
	return &ConversationHistory{
		window:     window,
		maxHistory: maxHistory,
	}
}

// Append adds an exchange to the end of the history. Exchanges are
// never reordered. When the storage bound is exceeded the oldest
// exchanges are trimmed.
func (h *ConversationHistory) Append(ex domain.Exchange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.exchanges = append(h.exchanges, ex)
	if len(h.exchanges) > h.maxHistory {
		// Copy so the trimmed prefix can be collected.
		trimmed := make([]domain.Exchange, h.maxHistory)
		copy(trimmed, h.exchanges[len(h.exchanges)-h.maxHistory:])
		h.exchanges = trimmed
	}
}

// Window returns the last n exchanges in chronological order, oldest
// first, so the prompt reads naturally. Fewer are returned if the
// history is shorter. n <= 0 uses the configured window.
func (h *ConversationHistory) Window(n int) []domain.Exchange {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 {
		n = h.window
	}
	if n > len(h.exchanges) {
		n = len(h.exchanges)
	}

	out := make([]domain.Exchange, n)
	copy(out, h.exchanges[len(h.exchanges)-n:])
	return out
}

// All returns the full ordered history.
func (h *ConversationHistory) All() []domain.Exchange {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.Exchange, len(h.exchanges))
	copy(out, h.exchanges)
	return out
}

// Len returns the number of stored exchanges.
func (h *ConversationHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.exchanges)
}

// Clear empties the history without destroying the owning session.
func (h *ConversationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = nil
}

// Configure changes how many past exchanges future Window calls without
// an explicit count consider. Stored exchanges are never dropped.
func (h *ConversationHistory) Configure(window int) {
	if window <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = window
}

// ContextWindow returns the configured default window size.
func (h *ConversationHistory) ContextWindow() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.window
}

// restore seeds the history from durable storage, trimming to the bound.
func (h *ConversationHistory) restore(exchanges []domain.Exchange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(exchanges) > h.maxHistory {
		exchanges = exchanges[len(exchanges)-h.maxHistory:]
	}
	h.exchanges = append([]domain.Exchange(nil), exchanges...)
}
