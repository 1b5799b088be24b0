package memory

import (
	"context"
	"fmt"
)

// Document is a stored unit of memory.
//
// Invariants: ID is unique within the collection; Embedding length is
// constant across all documents in a collection and unit-normalized.
type Document struct {
	// ID uniquely identifies the document. Generated if empty on Save.
	ID string

	// Content is the text body.
	Content string

	// Metadata holds free-form string fields (e.g. "content_type", "prompt").
	Metadata map[string]string

	// Embedding is the fixed-length unit vector for similarity search.
	Embedding []float32
}

// QueryResult is a single similarity match. Ephemeral, never persisted.
type QueryResult struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// Distance is the cosine distance to the query (lower = closer).
	// Nil when the backend reports no score.
	Distance *float32 `json:"distance,omitempty"`
}

// Store is the vector storage backend interface.
// Implementations: chromem.Store (local), hosted vector databases (production).
//
// Implementations own correctness of concurrent access; callers never need
// external locking.
type Store interface {
	// Upsert inserts the document, replacing any existing record with the
	// same ID. Returns the ID used.
	Upsert(ctx context.Context, doc Document) (string, error)

	// Query returns up to topK nearest neighbors by cosine distance,
	// ascending. topK <= 0 and empty collections both yield an empty
	// result, not an error.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Delete removes the record if present. Deleting an unknown ID is a
	// no-op success.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations: hash.Embedder (deterministic fallback), onnx.Embedder
// (real model, onnx build tag).
type Embedder interface {
	// Embed converts a single text to an embedding vector. Must be safe
	// for empty input and must return a unit-normalized vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// StorageError reports that the vector store backing is unreachable or
// rejected an operation. It is surfaced to the caller unmodified; the
// memory service performs no retries.
type StorageError struct {
	Op  string // operation that failed: "upsert", "query", "delete"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("memory storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
