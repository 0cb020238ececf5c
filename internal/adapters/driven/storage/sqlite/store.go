package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/arkanlabs/docchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docchat/data/docchat.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docchat", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docchat.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// HistoryStore returns a HistoryStore interface backed by this store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveRecord stores or updates a document record.
func (s *documentStore) SaveRecord(ctx context.Context, rec *domain.DocumentRecord) error {
	if rec.IngestedAt.IsZero() {
		rec.IngestedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (filename, file_hash, chunks, ingested_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			file_hash = excluded.file_hash,
			chunks = excluded.chunks,
			ingested_at = excluded.ingested_at
	`, rec.Filename, rec.Hash, rec.Chunks, rec.IngestedAt)

	if err != nil {
		return fmt.Errorf("saving document record: %w", err)
	}
	return nil
}

// GetRecordByHash retrieves a record by content fingerprint.
func (s *documentStore) GetRecordByHash(ctx context.Context, hash string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT filename, file_hash, chunks, ingested_at
		FROM documents WHERE file_hash = ?
	`, hash)
	return scanRecord(row)
}

// GetRecordByFilename retrieves a record by filename.
func (s *documentStore) GetRecordByFilename(ctx context.Context, filename string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT filename, file_hash, chunks, ingested_at
		FROM documents WHERE filename = ?
	`, filename)
	return scanRecord(row)
}

// ListRecords returns all document records, ordered by filename.
func (s *documentStore) ListRecords(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT filename, file_hash, chunks, ingested_at
		FROM documents ORDER BY filename
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var records []domain.DocumentRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.DocumentRecord
		var ingestedAt sql.NullTime
		if err := rows.Scan(&rec.Filename, &rec.Hash, &rec.Chunks, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scanning document record: %w", err)
		}
		if ingestedAt.Valid {
			rec.IngestedAt = ingestedAt.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a document record; fragments cascade.
func (s *documentStore) DeleteRecord(ctx context.Context, filename string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE filename = ?", filename)
	if err != nil {
		return fmt.Errorf("deleting document record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveFragments stores fragment metadata for a document.
func (s *documentStore) SaveFragments(ctx context.Context, fragments []domain.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, frag := range fragments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fragments (id, filename, position, content, embedding)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				filename = excluded.filename,
				position = excluded.position,
				content = excluded.content,
				embedding = excluded.embedding
		`, frag.ID, frag.Filename, frag.Position, frag.Content, encodeEmbedding(frag.Embedding))
		if err != nil {
			return fmt.Errorf("saving fragment %s: %w", frag.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing fragments: %w", err)
	}
	return nil
}

// GetFragments retrieves all fragments of a document, ordered by position.
func (s *documentStore) GetFragments(ctx context.Context, filename string) ([]domain.Fragment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, position, content, embedding
		FROM fragments WHERE filename = ? ORDER BY position
	`, filename)
	if err != nil {
		return nil, fmt.Errorf("querying fragments: %w", err)
	}
	defer rows.Close()

	var fragments []domain.Fragment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var frag domain.Fragment
		var blob []byte
		if err := rows.Scan(&frag.ID, &frag.Filename, &frag.Position, &frag.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}
		embedding, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for fragment %s: %w", frag.ID, err)
		}
		frag.Embedding = embedding
		fragments = append(fragments, frag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fragments: %w", err)
	}
	return fragments, nil
}

func scanRecord(row *sql.Row) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	var ingestedAt sql.NullTime
	if err := row.Scan(&rec.Filename, &rec.Hash, &rec.Chunks, &ingestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document record: %w", err)
	}
	if ingestedAt.Valid {
		rec.IngestedAt = ingestedAt.Time
	}
	return &rec, nil
}

// encodeEmbedding packs a vector as little-endian float32 bytes.
func encodeEmbedding(embedding []float32) []byte {
	if len(embedding) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding unpacks a vector from little-endian float32 bytes.
func decodeEmbedding(buf []byte) ([]float32, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	embedding := make([]float32, len(buf)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return embedding, nil
}

// ==================== History Store ====================

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// AppendExchange records one exchange for a session.
func (s *historyStore) AppendExchange(ctx context.Context, sessionID string, ex domain.Exchange) error {
	sourcesJSON, err := json.Marshal(ex.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO exchanges (session_id, question, answer, sources, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, ex.Question, ex.Answer, string(sourcesJSON), ex.Timestamp)

	if err != nil {
		return fmt.Errorf("saving exchange: %w", err)
	}
	return nil
}

// LoadHistory returns a session's exchanges in insertion order.
func (s *historyStore) LoadHistory(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT question, answer, sources, created_at
		FROM exchanges WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []domain.Exchange //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ex domain.Exchange
		var sourcesJSON string
		var createdAt sql.NullTime
		if err := rows.Scan(&ex.Question, &ex.Answer, &sourcesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &ex.Sources); err != nil {
			return nil, fmt.Errorf("unmarshaling sources: %w", err)
		}
		if createdAt.Valid {
			ex.Timestamp = createdAt.Time
		}
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchanges: %w", err)
	}
	return exchanges, nil
}

// ClearHistory removes all exchanges of a session.
func (s *historyStore) ClearHistory(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM exchanges WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("clearing exchanges: %w", err)
	}
	return nil
}

// SessionIDs returns every session id with recorded exchanges.
func (s *historyStore) SessionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT DISTINCT session_id FROM exchanges ORDER BY session_id")
	if err != nil {
		return nil, fmt.Errorf("querying session ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session ids: %w", err)
	}
	return ids, nil
}
