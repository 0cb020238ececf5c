// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: turns text into vectors
//   - VectorIndex: stores vectors and answers nearest-neighbour queries
//   - LLMService: streaming answer generation
//   - DocumentStore: DocumentRecord and fragment persistence
//   - TextExtractor: opaque file-bytes-to-text conversion
//
// # Optional Interfaces
//
//   - HistoryStore: durable conversation history. Sessions are correct
//     for a single run without it; it only adds restart survival.
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
