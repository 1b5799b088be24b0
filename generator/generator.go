// Package generator composes prompts from retrieved memory, a style
// profile, and recent conversation history, then calls the configured LLM
// backend. Successful generations are persisted back to memory and
// appended to the per-user history.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"

	"github.com/scribeworks/scribe/analyzer"
	"github.com/scribeworks/scribe/history"
	"github.com/scribeworks/scribe/llm"
	"github.com/scribeworks/scribe/logger"
	"github.com/scribeworks/scribe/memory"
)

// Channel names for history scoping.
const (
	ChannelBlog   = "blog"
	ChannelSocial = "social"
)

// Retrieval depth per channel, matching the long-form flow's wider net.
const (
	blogContextDocs   = 8
	socialContextDocs = 6
)

// historySnippets is how many recent exchanges ride along in the prompt.
const historySnippets = 5

// contextExcerptLen bounds how much of each retrieved document is quoted.
const contextExcerptLen = 800

// Service runs the generation flows. All collaborators are injected at
// construction; there are no package-level singletons.
type Service struct {
	gen  llm.Generator
	mem  *memory.Service
	hist *history.Store
}

// NewService creates a generation service.
func NewService(gen llm.Generator, mem *memory.Service, hist *history.Store) *Service {
	return &Service{gen: gen, mem: mem, hist: hist}
}

// BlogRequest asks for a single long-form post.
type BlogRequest struct {
	UserID      string
	Prompt      string
	WordCount   int // target length, default 1000
	Model       string
	MaxTokens   int
	Temperature *float64 // nil selects 0.7, an explicit zero is honored
}

// SocialRequest asks for a batch of short posts.
type SocialRequest struct {
	UserID      string
	Prompt      string
	Count       int      // default 5
	Platform    string   // default "linkedin"
	Model       string
	Temperature *float64 // nil selects 0.8, an explicit zero is honored
}

// Result is a finished generation.
type Result struct {
	Text     string         `json:"text"`
	Markdown string         `json:"markdown"`
	Metadata map[string]any `json:"metadata"`
}

// Blog generates long-form content in the user's style. Memory and history
// are only written after the generation call succeeds; a failed call
// leaves both untouched.
func (s *Service) Blog(ctx context.Context, req BlogRequest) (*Result, error) {
	wordCount := req.WordCount
	if wordCount == 0 {
		wordCount = 1000
	}

	retrievalKey := req.UserID + ":" + req.Prompt
	contexts, err := s.mem.Query(ctx, retrievalKey, blogContextDocs)
	if err != nil {
		return nil, err
	}
	profile := analyzer.Analyze(analyzer.FromResults(contexts))

	prompt := composePrompt(promptInput{
		system:      blogSystemInstructions,
		userPrompt:  fmt.Sprintf("%s\nTarget words: %d", req.Prompt, wordCount),
		contexts:    contexts,
		profile:     profile,
		snippets:    s.hist.Recent(req.UserID, ChannelBlog, historySnippets),
		constraints: map[string]string{"target_word_count": fmt.Sprint(wordCount)},
	})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		// Rough tokens-per-word factor plus headroom.
		maxTokens = int(float64(wordCount)*1.6) + 100
	}
	temperature := req.Temperature
	if temperature == nil {
		def := 0.7
		temperature = &def
	}

	text, err := s.gen.GenerateText(ctx, prompt, llm.Options{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		logger.Errorf("[GENERATOR] Blog generation failed for user=%s: %v", req.UserID, err)
		return nil, err
	}

	if _, err := s.mem.Add(ctx, retrievalKey, text); err != nil {
		return nil, err
	}
	s.hist.Append(req.UserID, ChannelBlog, exchange(req.Prompt, text))

	return &Result{
		Text:     text,
		Markdown: string(markdown.ToHTML([]byte(text), nil, nil)),
		Metadata: map[string]any{
			"model":             s.modelName(req.Model),
			"word_count_target": wordCount,
		},
	}, nil
}

// Social generates a batch of short posts. A single post's failure is
// captured as an inline error marker in that post's text so the remaining
// posts still complete; metadata reports the failed count.
func (s *Service) Social(ctx context.Context, req SocialRequest) (*Result, error) {
	count := req.Count
	if count == 0 {
		count = 5
	}
	platform := req.Platform
	if platform == "" {
		platform = "linkedin"
	}
	temperature := req.Temperature
	if temperature == nil {
		def := 0.8
		temperature = &def
	}

	retrievalKey := req.UserID + ":" + req.Prompt
	contexts, err := s.mem.Query(ctx, retrievalKey, socialContextDocs)
	if err != nil {
		return nil, err
	}
	profile := analyzer.Analyze(analyzer.FromResults(contexts))
	snippets := s.hist.Recent(req.UserID, ChannelSocial, historySnippets)

	posts := make([]string, 0, count)
	failed := 0
	var lastErr error
	for i := 0; i < count; i++ {
		prompt := composePrompt(promptInput{
			system:      socialSystemInstructions,
			userPrompt:  fmt.Sprintf("%s\nCreate a single %s post. Keep concise and engaging.", req.Prompt, platform),
			contexts:    contexts,
			profile:     profile,
			snippets:    snippets,
			constraints: map[string]string{"post_index": fmt.Sprint(i + 1)},
		})

		text, err := s.gen.GenerateText(ctx, prompt, llm.Options{
			Model:       req.Model,
			MaxTokens:   200,
			Temperature: temperature,
		})
		if err != nil {
			logger.Errorf("[GENERATOR] Social post #%d failed for user=%s: %v", i+1, req.UserID, err)
			text = fmt.Sprintf("[ERROR generating post %d: %v]", i+1, err)
			failed++
			lastErr = err
		}
		posts = append(posts, text)
	}

	if failed == count {
		// Nothing usable was produced, so nothing is persisted.
		return nil, lastErr
	}

	full := strings.Join(posts, "\n\n")
	if _, err := s.mem.Add(ctx, retrievalKey, full); err != nil {
		return nil, err
	}
	s.hist.Append(req.UserID, ChannelSocial, exchange(req.Prompt, full))

	bullets := make([]string, len(posts))
	for i, p := range posts {
		bullets[i] = "- " + p
	}

	return &Result{
		Text:     full,
		Markdown: strings.Join(bullets, "\n\n"),
		Metadata: map[string]any{
			"model":    s.modelName(req.Model),
			"count":    count,
			"platform": platform,
			"failed":   failed,
		},
	}, nil
}

func (s *Service) modelName(override string) string {
	if override != "" {
		return override
	}
	return s.gen.Model()
}

// exchange formats a history entry.
func exchange(prompt, response string) string {
	return "User: " + prompt + "\nAI: " + response
}

type promptInput struct {
	system      string
	userPrompt  string
	contexts    []memory.QueryResult
	profile     analyzer.StyleProfile
	snippets    []string
	constraints map[string]string
}

// composePrompt builds the single prompt handed to the LLM: persona,
// style hints, retrieved context excerpts, recent conversation, and the
// user request.
func composePrompt(in promptInput) string {
	var sb []string
	sb = append(sb, in.system)

	if in.profile.AvgLengthWords > 0 {
		sb = append(sb, fmt.Sprintf("User typical article length (words): %d", int(in.profile.AvgLengthWords)))
	}
	if len(in.profile.MostCommonWords) > 0 {
		top := in.profile.MostCommonWords
		if len(top) > 10 {
			top = top[:10]
		}
		words := make([]string, len(top))
		for i, wc := range top {
			words[i] = wc.Word
		}
		sb = append(sb, "Frequent words/phrases: "+strings.Join(words, ", "))
	}

	if len(in.contexts) > 0 {
		sb = append(sb, "Past user content to mimic (most relevant first):")
		n := len(in.contexts)
		if n > 5 {
			n = 5
		}
		for i, ctx := range in.contexts[:n] {
			excerpt := ctx.Content
			if len(excerpt) > contextExcerptLen {
				excerpt = excerpt[:contextExcerptLen]
			}
			sb = append(sb, fmt.Sprintf("--- Context %d (id=%s):\n%s", i+1, ctx.ID, excerpt))
		}
	}

	if len(in.snippets) > 0 {
		sb = append(sb, "Recent conversation:\n"+strings.Join(in.snippets, "\n"))
	}

	sb = append(sb, "Instructions:\nWrite in the same tone, voice, and structure as the user's past content above.\nFollow the user's prompt exactly. If a target word count is given, aim for that length.")
	for k, v := range in.constraints {
		sb = append(sb, fmt.Sprintf("Constraint: %s => %s", k, v))
	}

	sb = append(sb, "User prompt:\n"+in.userPrompt)
	sb = append(sb, "Output only the final content in plain text. Do NOT include analysis or commentary.")
	return strings.Join(sb, "\n\n")
}

const blogSystemInstructions = `You are a professional blog writer.
Your ONLY job is to create engaging, structured, long-form blog posts.
Do not answer general questions. If the request is off-topic, politely explain that you can only help with blog writing.

Follow this structure:
- Catchy introduction (hook)
- Main sections with clear headings
- Engaging examples and explanations
- Concise conclusion with a call-to-action`

const socialSystemInstructions = `You are a social media strategist and content creator.
Your ONLY job is to generate short-form social content (tweets, LinkedIn posts, Instagram captions, content ideas).
You must NEVER answer general knowledge questions or unrelated topics.
If the user asks something outside social media content, politely remind them that you can only create posts and ideas.`
