// Package memory provides per-user long-term memory backed by a vector store.
//
// Documents are stored with a fixed-length, unit-normalized embedding and
// retrieved by cosine similarity. Documents are written once and removed only
// by explicit delete; there is no update operation.
//
// Architecture:
//   - Store: vector storage backend (chromem-go locally, swappable for a
//     hosted vector database in production)
//   - Embedder: text-to-vector conversion (deterministic hash fallback by
//     default, ONNX model behind the onnx build tag)
//   - Service: orchestrates embedding and storage, shapes query results
//
// The Service performs no retries; retry policy belongs to the caller.
// Storage failures surface as *StorageError.
package memory
