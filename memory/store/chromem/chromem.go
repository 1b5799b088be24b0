// Package chromem implements the memory.Store interface over chromem-go,
// a pure Go embedded vector database with on-disk persistence.
package chromem

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/scribeworks/scribe/logger"
	"github.com/scribeworks/scribe/memory"
)

// CollectionName is the single fixed collection all documents live in.
const CollectionName = "user_content"

// Store wraps a persistent chromem-go collection configured for cosine
// distance. chromem-go owns locking, so Store is safe for concurrent use
// without external synchronization.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// Open initializes (or reopens) the store under the given directory.
// The directory is created on first use; opening repeatedly is idempotent.
func Open(persistDir string) (*Store, error) {
	db, err := chromem.NewPersistentDB(persistDir, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent db: %w", err)
	}

	// We always provide embeddings ourselves, so no embedding func is
	// configured. chromem's default metric is cosine similarity.
	col, err := db.GetOrCreateCollection(CollectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}

	logger.Infof("[CHROMEM] Opened collection %q at %s (%d documents)", CollectionName, persistDir, col.Count())
	return &Store{db: db, collection: col}, nil
}

// Upsert inserts the document, replacing any existing record with the same
// ID (chromem keys documents by ID, so adding again is a replace).
func (s *Store) Upsert(ctx context.Context, doc memory.Document) (string, error) {
	if doc.ID == "" {
		return "", fmt.Errorf("document id must not be empty")
	}

	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:        doc.ID,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		Embedding: doc.Embedding,
	})
	if err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	return doc.ID, nil
}

// Query returns up to topK nearest neighbors by cosine distance, ascending.
func (s *Store) Query(ctx context.Context, embedding []float32, topK int) ([]memory.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	// chromem rejects nResults larger than the collection, so clamp. A
	// concurrent delete can shrink the collection between the clamp and
	// the query; on that rejection, re-read the count and try again.
	var (
		results []chromem.Result
		count   int
	)
	for {
		count = s.collection.Count()
		if count == 0 {
			return nil, nil
		}
		n := topK
		if n > count {
			n = count
		}

		var err error
		results, err = s.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
		if err == nil {
			break
		}
		if strings.Contains(err.Error(), "number of documents") && ctx.Err() == nil {
			continue
		}
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	// chromem reports cosine similarity ordered descending, which is
	// cosine distance ordered ascending.
	out := make([]memory.QueryResult, 0, len(results))
	for _, r := range results {
		distance := 1 - r.Similarity
		out = append(out, memory.QueryResult{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Distance: &distance,
		})
	}

	logger.Debugf("[CHROMEM] Query returned %d of %d documents", len(out), count)
	return out, nil
}

// Delete removes the record if present. Unknown ids are a no-op success.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.collection.GetByID(ctx, id); err != nil {
		// Not stored; idempotent success.
		return nil
	}

	if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Debugf("[CHROMEM] Deleted document id=%s", id)
	return nil
}

// Close releases resources. chromem persists synchronously on every write,
// so there is nothing to flush.
func (s *Store) Close() error {
	return nil
}
