package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSessionNotFound indicates an unknown or expired session id was
	// supplied explicitly. This is a client error and is never retried.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInput indicates malformed or invalid input,
	// such as an empty question or a non-positive top_k.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyIngested indicates a document with an identical content
	// fingerprint has already been processed. Reported as a skipped-item
	// status, not surfaced as a failure.
	ErrAlreadyIngested = errors.New("document already ingested")

	// ErrRetrievalFailed indicates the embedding or nearest-neighbour
	// service was unavailable or timed out. Retried a bounded number of
	// times before being surfaced.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed indicates the streaming generation service
	// errored before completing an answer. The partial answer is never
	// committed to history.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrIngestionFailed indicates extraction, chunking or embedding
	// failed for one document. Other documents in a batch are unaffected.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
