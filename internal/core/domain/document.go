package domain

import "time"

// DocumentRecord describes one ingested source document.
// The fingerprint is unique per logical document version: re-ingesting
// identical bytes is skipped unless explicitly forced.
type DocumentRecord struct {
	// Filename is the original file name of the document.
	Filename string `json:"filename"`

	// Hash is the SHA-256 hex fingerprint of the raw file bytes.
	Hash string `json:"file_hash"`

	// Chunks is the number of fragments produced at ingestion.
	Chunks int `json:"chunks"`

	// IngestedAt is when the document was processed.
	IngestedAt time.Time `json:"upload_date"`
}

// Fragment is one chunk of a document's text plus its embedding vector.
// Produced at ingestion, consumed at retrieval; immutable.
type Fragment struct {
	// ID is the unique identifier for the fragment.
	ID string

	// Filename is the source document the fragment came from.
	Filename string

	// Position is the ordinal position within the document.
	Position int

	// Content is the text content of this fragment.
	Content string

	// Embedding is the vector representation for similarity search.
	Embedding []float32
}

// RetrievedFragment is a fragment returned by a similarity search,
// together with its score. Results are ordered by descending score;
// ties are broken by insertion order for determinism.
type RetrievedFragment struct {
	Fragment

	// Score is the similarity between the fragment and the query vector.
	Score float64
}

// IngestStatus describes the outcome of ingesting one document.
type IngestStatus string

const (
	// IngestStatusIngested means the document was chunked, embedded and indexed.
	IngestStatusIngested IngestStatus = "ingested"

	// IngestStatusSkipped means an identical fingerprint was already
	// processed and no work was done.
	IngestStatusSkipped IngestStatus = "skipped"

	// IngestStatusFailed means extraction, chunking or embedding failed.
	IngestStatusFailed IngestStatus = "failed"
)

// IngestResult reports the outcome of ingesting one document.
// Batch ingestion produces one result per document; a failed document
// never aborts the rest of the batch.
type IngestResult struct {
	Filename string       `json:"filename"`
	Hash     string       `json:"file_hash,omitempty"`
	Chunks   int          `json:"chunks"`
	Status   IngestStatus `json:"status"`
	Err      error        `json:"-"`
}
