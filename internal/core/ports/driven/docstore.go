package driven

import (
	"context"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// DocumentStore persists document records and fragment metadata.
// Backed by SQLite for durable metadata storage.
type DocumentStore interface {
	// SaveRecord stores or updates a document record.
	SaveRecord(ctx context.Context, rec *domain.DocumentRecord) error

	// GetRecordByHash retrieves a record by content fingerprint.
	// Returns domain.ErrNotFound if no document has this fingerprint.
	GetRecordByHash(ctx context.Context, hash string) (*domain.DocumentRecord, error)

	// GetRecordByFilename retrieves a record by filename.
	GetRecordByFilename(ctx context.Context, filename string) (*domain.DocumentRecord, error)

	// ListRecords returns all document records, ordered by filename.
	ListRecords(ctx context.Context) ([]domain.DocumentRecord, error)

	// DeleteRecord removes a document record and its fragments.
	DeleteRecord(ctx context.Context, filename string) error

	// SaveFragments stores fragment metadata for a document.
	SaveFragments(ctx context.Context, fragments []domain.Fragment) error

	// GetFragments retrieves all fragments of a document, ordered by position.
	GetFragments(ctx context.Context, filename string) ([]domain.Fragment, error)
}

// HistoryStore persists conversation history across restarts.
// Optional: session correctness within a single run never depends on it.
type HistoryStore interface {
	// AppendExchange records one exchange for a session.
	AppendExchange(ctx context.Context, sessionID string, ex domain.Exchange) error

	// LoadHistory returns a session's exchanges in insertion order.
	LoadHistory(ctx context.Context, sessionID string) ([]domain.Exchange, error)

	// ClearHistory removes all exchanges of a session.
	ClearHistory(ctx context.Context, sessionID string) error

	// SessionIDs returns every session id with recorded exchanges.
	SessionIDs(ctx context.Context) ([]string, error)
}
