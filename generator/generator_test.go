package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/scribeworks/scribe/history"
	"github.com/scribeworks/scribe/llm"
	"github.com/scribeworks/scribe/memory"
	"github.com/scribeworks/scribe/memory/embedder/hash"
	"github.com/scribeworks/scribe/memory/store/chromem"
)

// stubGenerator scripts responses per call.
type stubGenerator struct {
	calls   int
	prompts []string
	opts    []llm.Options
	fn      func(call int, prompt string) (string, error)
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string, opts llm.Options) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	return s.fn(s.calls, prompt)
}

func (s *stubGenerator) Model() string { return "stub-model" }

func newFixture(t *testing.T, gen llm.Generator) (*Service, *memory.Service, *history.Store) {
	t.Helper()
	store, err := chromem.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	mem, err := memory.NewService(store, hash.New(64))
	if err != nil {
		t.Fatalf("create memory service: %v", err)
	}
	hist := history.New(0)
	return NewService(gen, mem, hist), mem, hist
}

func TestBlogPersistsAfterSuccess(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{fn: func(int, string) (string, error) {
		return "# A Post\n\ngenerated body", nil
	}}
	svc, mem, hist := newFixture(t, gen)

	result, err := svc.Blog(ctx, BlogRequest{UserID: "user1", Prompt: "write about go"})
	if err != nil {
		t.Fatalf("blog: %v", err)
	}

	if result.Text != "# A Post\n\ngenerated body" {
		t.Errorf("text = %q", result.Text)
	}
	if !strings.Contains(result.Markdown, "<h1") {
		t.Errorf("markdown rendering missing: %q", result.Markdown)
	}
	if result.Metadata["model"] != "stub-model" {
		t.Errorf("metadata model = %v", result.Metadata["model"])
	}

	// The exchange is remembered, keyed by user-scoped prompt metadata.
	results, err := mem.Query(ctx, result.Text, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("memory holds %d documents, want 1", len(results))
	}
	if results[0].Metadata["prompt"] != "user1:write about go" {
		t.Errorf("prompt metadata = %q", results[0].Metadata["prompt"])
	}

	if hist.Len("user1", ChannelBlog) != 1 {
		t.Errorf("history entries = %d, want 1", hist.Len("user1", ChannelBlog))
	}
}

func TestBlogFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{fn: func(int, string) (string, error) {
		return "", &llm.GenerationError{Message: "connection refused"}
	}}
	svc, mem, hist := newFixture(t, gen)

	_, err := svc.Blog(ctx, BlogRequest{UserID: "user1", Prompt: "write about go"})

	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}

	// A failed generation must leave memory and history untouched.
	results, err := mem.Query(ctx, "write about go", 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("memory holds %d documents after failure, want 0", len(results))
	}
	if hist.Len("user1", ChannelBlog) != 0 {
		t.Errorf("history has %d entries after failure, want 0", hist.Len("user1", ChannelBlog))
	}
}

func TestBlogPromptIncludesContextAndHistory(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{fn: func(int, string) (string, error) {
		return "ok", nil
	}}
	svc, mem, hist := newFixture(t, gen)

	if _, err := mem.Save(ctx, "", "user1:write about go", map[string]string{"content_type": "article"}, nil); err != nil {
		t.Fatalf("seed memory: %v", err)
	}
	hist.Append("user1", ChannelBlog, "User: earlier\nAI: earlier answer")

	if _, err := svc.Blog(ctx, BlogRequest{UserID: "user1", Prompt: "write about go"}); err != nil {
		t.Fatalf("blog: %v", err)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "Past user content to mimic") {
		t.Error("prompt missing retrieved context section")
	}
	if !strings.Contains(prompt, "Recent conversation:") || !strings.Contains(prompt, "earlier answer") {
		t.Error("prompt missing history snippets")
	}
	if !strings.Contains(prompt, "target_word_count => 1000") {
		t.Errorf("prompt missing word count constraint:\n%s", prompt)
	}
}

func TestBlogTemperatureResolution(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{fn: func(int, string) (string, error) {
		return "ok", nil
	}}
	svc, _, _ := newFixture(t, gen)

	if _, err := svc.Blog(ctx, BlogRequest{UserID: "user1", Prompt: "first"}); err != nil {
		t.Fatalf("blog: %v", err)
	}
	if got := gen.opts[0].Temperature; got == nil || *got != 0.7 {
		t.Errorf("unset temperature = %v, want default 0.7", got)
	}

	zero := 0.0
	if _, err := svc.Blog(ctx, BlogRequest{UserID: "user1", Prompt: "second", Temperature: &zero}); err != nil {
		t.Fatalf("blog: %v", err)
	}
	if got := gen.opts[1].Temperature; got == nil || *got != 0 {
		t.Errorf("explicit zero temperature = %v, want 0", got)
	}
}

func TestSocialPartialFailure(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{fn: func(call int, _ string) (string, error) {
		if call == 2 {
			return "", &llm.GenerationError{Message: "boom"}
		}
		return fmt.Sprintf("post number %d", call), nil
	}}
	svc, mem, hist := newFixture(t, gen)

	result, err := svc.Social(ctx, SocialRequest{UserID: "user1", Prompt: "promote the launch", Count: 3})
	if err != nil {
		t.Fatalf("social: %v", err)
	}

	// The failed item carries an inline marker; the batch still completes.
	if !strings.Contains(result.Text, "[ERROR generating post 2:") {
		t.Errorf("missing inline error marker:\n%s", result.Text)
	}
	if !strings.Contains(result.Text, "post number 1") || !strings.Contains(result.Text, "post number 3") {
		t.Errorf("surviving posts missing:\n%s", result.Text)
	}
	if result.Metadata["failed"] != 1 {
		t.Errorf("failed = %v, want 1", result.Metadata["failed"])
	}
	if !strings.HasPrefix(result.Markdown, "- ") {
		t.Errorf("markdown should be a bullet list:\n%s", result.Markdown)
	}

	results, err := mem.Query(ctx, result.Text, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("memory holds %d documents, want 1", len(results))
	}
	if hist.Len("user1", ChannelSocial) != 1 {
		t.Errorf("history entries = %d, want 1", hist.Len("user1", ChannelSocial))
	}
}

func TestSocialAllFailed(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{fn: func(int, string) (string, error) {
		return "", &llm.GenerationError{Message: "down"}
	}}
	svc, mem, hist := newFixture(t, gen)

	_, err := svc.Social(ctx, SocialRequest{UserID: "user1", Prompt: "promote", Count: 2})
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}

	results, qerr := mem.Query(ctx, "promote", 5)
	if qerr != nil {
		t.Fatalf("query: %v", qerr)
	}
	if len(results) != 0 {
		t.Errorf("memory holds %d documents after total failure, want 0", len(results))
	}
	if hist.Len("user1", ChannelSocial) != 0 {
		t.Errorf("history has %d entries after total failure", hist.Len("user1", ChannelSocial))
	}
}
