package memory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"github.com/scribeworks/scribe/logger"
)

// Service orchestrates embedding and vector storage to provide
// add/query/delete semantics keyed by opaque text.
type Service struct {
	store    Store
	embedder Embedder
	cache    *ristretto.Cache // text -> []float32, embeddings are deterministic
}

// Option configures the service.
type Option func(*Service)

// WithEmbeddingCache sets the cache used to memoize computed embeddings.
func WithEmbeddingCache(c *ristretto.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// NewService creates a memory service over the given store and embedder.
// An embedding cache is created by default; pass WithEmbeddingCache to
// share one across services.
func NewService(store Store, embedder Embedder, opts ...Option) (*Service, error) {
	s := &Service{
		store:    store,
		embedder: embedder,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     32 << 20, // 32 MiB of cached vectors
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Save stores content with the given metadata. If id is empty a new one is
// generated; if embedding is nil it is computed with the configured
// Embedder. Returns the final id.
func (s *Service) Save(ctx context.Context, id, content string, metadata map[string]string, embedding []float32) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	if embedding == nil {
		var err error
		embedding, err = s.embed(ctx, content)
		if err != nil {
			return "", fmt.Errorf("embed content: %w", err)
		}
	}

	stored, err := s.store.Upsert(ctx, Document{
		ID:        id,
		Content:   content,
		Metadata:  metadata,
		Embedding: embedding,
	})
	if err != nil {
		return "", &StorageError{Op: "upsert", Err: err}
	}

	logger.Debugf("[MEMORY] Saved document id=%s len=%d", stored, len(content))
	return stored, nil
}

// Add stores a prompt/response exchange: the response is the content, the
// prompt rides along as metadata. The id is auto-generated.
func (s *Service) Add(ctx context.Context, prompt, response string) (string, error) {
	return s.Save(ctx, "", response, map[string]string{"prompt": prompt}, nil)
}

// Query embeds text and returns up to topK nearest documents, closest
// first. topK <= 0 yields an empty result.
func (s *Service) Query(ctx context.Context, text string, topK int) ([]QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	embedding, err := s.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Query(ctx, embedding, topK)
	if err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}

	// Backends are not required to return ids; fall back to the result's
	// position so callers always see one.
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = strconv.Itoa(i)
		}
	}

	logger.Debugf("[MEMORY] Retrieved %d documents for query len=%d", len(results), len(text))
	return results, nil
}

// Delete removes the document with the given id. Unknown ids succeed.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

// embed computes the embedding for text, memoizing results. Safe because
// the Embedder contract requires determinism.
func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}
