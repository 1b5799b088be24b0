// Package analyzer derives lightweight style profiles from past documents:
// typical lengths, frequent words, and common openings. It is intentionally
// shallow; deeper style transfer belongs to fine-tuning or richer RAG
// features.
package analyzer

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/scribeworks/scribe/memory"
)

// openingWords is how many leading tokens form a document's opening signature.
const openingWords = 20

// topWords and topOpenings bound the profile's ordered frequency lists.
const (
	topWords    = 50
	topOpenings = 5
)

// wordPattern matches lowercase word tokens: alphanumeric/underscore runs.
var wordPattern = regexp.MustCompile(`[0-9A-Za-z_]+`)

// Document is the analyzer's view of a retrieved memory. Only the shape
// matters; the analyzer has no dependency on the store itself.
type Document struct {
	Content  string
	Metadata map[string]string
}

// WordCount is a (token, frequency) pair.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// StyleProfile summarizes a set of documents. Recomputed per request,
// never persisted.
type StyleProfile struct {
	AvgLengthWords    float64     `json:"avg_length_words"`
	MedianLengthWords int         `json:"median_length_words"`
	MostCommonWords   []WordCount `json:"most_common_words"`
	CommonOpenings    []WordCount `json:"common_openings"`
}

// Analyze computes a style profile over the documents. A pure function of
// its input; an empty document set yields the zero profile rather than an
// error.
func Analyze(documents []Document) StyleProfile {
	if len(documents) == 0 {
		return StyleProfile{}
	}

	lengths := make([]int, 0, len(documents))
	words := newCounter()
	openings := newCounter()

	for _, doc := range documents {
		tokens := wordPattern.FindAllString(strings.ToLower(doc.Content), -1)
		lengths = append(lengths, len(tokens))
		for _, tok := range tokens {
			words.add(tok)
		}

		n := len(tokens)
		if n > openingWords {
			n = openingWords
		}
		openings.add(strings.Join(tokens[:n], " "))
	}

	var total int
	for _, l := range lengths {
		total += l
	}
	sorted := append([]int(nil), lengths...)
	sort.Ints(sorted)

	return StyleProfile{
		AvgLengthWords: float64(total) / float64(len(lengths)),
		// Upper-middle element for even counts.
		MedianLengthWords: sorted[len(sorted)/2],
		MostCommonWords:   words.mostCommon(topWords),
		CommonOpenings:    openings.mostCommon(topOpenings),
	}
}

// Retriever supplies documents for a broad retrieval key. *memory.Service
// satisfies it; the analyzer depends only on the result shape, never on
// the store itself.
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]memory.QueryResult, error)
}

// BuildProfile queries src with a generic writing-retrieval key and
// analyzes the results. This is the "profile for a user" composition.
func BuildProfile(ctx context.Context, src Retriever, topK int) (StyleProfile, error) {
	results, err := src.Query(ctx, "user writing", topK)
	if err != nil {
		return StyleProfile{}, err
	}
	return Analyze(FromResults(results)), nil
}

// FromResults converts query results into analyzer documents.
func FromResults(results []memory.QueryResult) []Document {
	docs := make([]Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, Document{Content: r.Content, Metadata: r.Metadata})
	}
	return docs
}

// counter tracks frequencies while remembering first-seen order so ties
// break toward the earlier token.
type counter struct {
	counts map[string]int
	order  map[string]int
	next   int
}

func newCounter() *counter {
	return &counter{
		counts: make(map[string]int),
		order:  make(map[string]int),
	}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order[key] = c.next
		c.next++
	}
	c.counts[key]++
}

func (c *counter) mostCommon(n int) []WordCount {
	out := make([]WordCount, 0, len(c.counts))
	for k, v := range c.counts {
		out = append(out, WordCount{Word: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return c.order[out[i].Word] < c.order[out[j].Word]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
