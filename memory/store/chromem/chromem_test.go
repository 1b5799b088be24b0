package chromem

import (
	"context"
	"testing"

	"github.com/scribeworks/scribe/memory"
	"github.com/scribeworks/scribe/memory/embedder/hash"
)

func embed(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := hash.New(64).Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("embed %q: %v", text, err)
	}
	return vec
}

func TestUpsertAndQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	_, err = store.Upsert(ctx, memory.Document{
		ID:        "doc1",
		Content:   "the fox jumps",
		Metadata:  map[string]string{"content_type": "article"},
		Embedding: embed(t, "the fox jumps"),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := store.Query(ctx, embed(t, "the fox jumps"), 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	r := results[0]
	if r.ID != "doc1" || r.Content != "the fox jumps" {
		t.Errorf("unexpected result: %+v", r)
	}
	if r.Metadata["content_type"] != "article" {
		t.Errorf("metadata lost: %v", r.Metadata)
	}
	if r.Distance == nil {
		t.Fatal("distance should be set")
	}
	if *r.Distance > 1e-4 {
		t.Errorf("distance to identical embedding = %v, want ~0", *r.Distance)
	}
}

func TestQueryOrdering(t *testing.T) {
	ctx := context.Background()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	for _, text := range []string{"first document", "second document", "third document"} {
		if _, err := store.Upsert(ctx, memory.Document{ID: text, Content: text, Embedding: embed(t, text)}); err != nil {
			t.Fatalf("upsert %q: %v", text, err)
		}
	}

	results, err := store.Query(ctx, embed(t, "second document"), 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].ID != "second document" {
		t.Errorf("closest result = %q, want the exact match first", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if *results[i-1].Distance > *results[i].Distance {
			t.Errorf("results not ascending by distance: %v then %v", *results[i-1].Distance, *results[i].Distance)
		}
	}
}

func TestUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	doc := memory.Document{ID: "doc1", Content: "old content", Embedding: embed(t, "old content")}
	if _, err := store.Upsert(ctx, doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	doc.Content = "new content"
	doc.Embedding = embed(t, "new content")
	if _, err := store.Upsert(ctx, doc); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	results, err := store.Query(ctx, embed(t, "new content"), 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results after replace, want 1", len(results))
	}
	if results[0].Content != "new content" {
		t.Errorf("content = %q, want the replacement", results[0].Content)
	}
}

func TestQueryEdgeCases(t *testing.T) {
	ctx := context.Background()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	// Empty collection is an empty result, not an error.
	results, err := store.Query(ctx, embed(t, "anything"), 5)
	if err != nil {
		t.Fatalf("query empty collection: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty collection returned %d results", len(results))
	}

	if _, err := store.Upsert(ctx, memory.Document{ID: "a", Content: "a", Embedding: embed(t, "a")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// topK <= 0 is empty.
	results, err = store.Query(ctx, embed(t, "a"), 0)
	if err != nil {
		t.Fatalf("query topK=0: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("topK=0 returned %d results", len(results))
	}

	// topK larger than the collection is clamped, not an error.
	results, err = store.Query(ctx, embed(t, "a"), 100)
	if err != nil {
		t.Fatalf("query topK=100: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("clamped query returned %d results, want 1", len(results))
	}
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete of unknown id should succeed: %v", err)
	}

	if _, err := store.Upsert(ctx, memory.Document{ID: "doc1", Content: "x", Embedding: embed(t, "x")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("repeated delete should succeed: %v", err)
	}

	results, err := store.Query(ctx, embed(t, "x"), 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, r := range results {
		if r.ID == "doc1" {
			t.Error("deleted id still returned by query")
		}
	}
}

func TestQueryDuringConcurrentDeletes(t *testing.T) {
	ctx := context.Background()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if _, err := store.Upsert(ctx, memory.Document{ID: "keep", Content: "keep", Embedding: embed(t, "keep")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Shrink and grow the collection while queries with an oversized topK
	// are in flight; the store owns the race, so no query may fail.
	flap := memory.Document{ID: "flap", Content: "flap", Embedding: embed(t, "flap")}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, _ = store.Upsert(ctx, flap)
			_ = store.Delete(ctx, "flap")
		}
	}()

	query := embed(t, "keep")
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		results, err := store.Query(ctx, query, 100)
		if err != nil {
			t.Fatalf("query during concurrent deletes: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("query lost the stable document")
		}
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Upsert(ctx, memory.Document{ID: "doc1", Content: "durable", Embedding: embed(t, "durable")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	results, err := reopened.Query(ctx, embed(t, "durable"), 5)
	if err != nil {
		t.Fatalf("query after reopen: %v", err)
	}
	if len(results) != 1 || results[0].Content != "durable" {
		t.Errorf("document did not survive reopen: %v", results)
	}
}
