package driving

import (
	"context"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// SessionManager exposes session lifecycle and history operations.
type SessionManager interface {
	// Create allocates a new empty session and returns its id.
	Create(ctx context.Context) (string, error)

	// List returns a snapshot of all live sessions.
	List(ctx context.Context) ([]domain.SessionInfo, error)

	// Delete removes a session and its history. Returns
	// domain.ErrSessionNotFound for an unknown id.
	Delete(ctx context.Context, id string) error

	// History returns a session's full exchange record in order.
	// Reading history does not extend the session's expiry.
	History(ctx context.Context, id string) ([]domain.Exchange, error)

	// ClearHistory empties a session's history without destroying the session.
	ClearHistory(ctx context.Context, id string) error

	// Configure sets the session's context window for future prompts.
	// Stored exchanges are never dropped retroactively.
	Configure(ctx context.Context, id string, contextWindow int) error

	// Export returns the session's history in exportable form.
	// Like History, it does not extend expiry.
	Export(ctx context.Context, id string) (*domain.ConversationExport, error)
}
