//go:build onnx

// Package onnx provides a real-model embedder over ONNX Runtime. It is the
// production-grade replacement for the hash fallback and honors the same
// contract: fixed dimensions, unit-normalized output.
//
// Build with -tags onnx and point Config.LibraryPath at a local
// libonnxruntime shared library.
package onnx

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the HuggingFace tokenizer.json.
	TokenizerPath string

	// LibraryPath is the path to the onnxruntime shared library.
	LibraryPath string

	// Dimensions is the embedding size (default 384, all-MiniLM-L6-v2).
	Dimensions int
}

// Embedder generates embeddings with an ONNX sentence-transformer model.
type Embedder struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *wordPieceTokenizer
	dimensions int
}

// maxSequence is the model input length, including [CLS] and [SEP].
const maxSequence = 128

// New creates an ONNX embedder from the given model and tokenizer files.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("ModelPath is required")
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	tokenizer, err := loadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Embedder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts text to a unit-normalized embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	tokens := e.tokenizer.tokenize(text)

	inputIDs := make([]int64, maxSequence)
	attentionMask := make([]int64, maxSequence)
	tokenTypeIDs := make([]int64, maxSequence)

	inputIDs[0] = int64(e.tokenizer.clsToken)
	attentionMask[0] = 1

	n := len(tokens)
	if n > maxSequence-2 {
		n = maxSequence - 2
	}
	for i := 0; i < n; i++ {
		inputIDs[i+1] = tokens[i]
		attentionMask[i+1] = 1
	}
	inputIDs[n+1] = int64(e.tokenizer.sepToken)
	attentionMask[n+1] = 1

	shape := ort.NewShape(1, int64(maxSequence))
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	if len(outputs) == 0 || outputs[0] == nil {
		return nil, fmt.Errorf("no output tensors returned")
	}
	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}

	vec, err := e.pool(hidden, attentionMask)
	if err != nil {
		return nil, err
	}
	return normalize(vec), nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases ONNX resources.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

// pool reduces the hidden states to a single vector. Pooled models emit
// [1, dims] directly; otherwise mean-pool [1, seq, dims] over the attended
// positions.
func (e *Embedder) pool(hidden *ort.Tensor[float32], attentionMask []int64) ([]float32, error) {
	data := hidden.GetData()
	shape := hidden.GetShape()

	switch len(shape) {
	case 2:
		if len(data) < e.dimensions {
			return nil, fmt.Errorf("output dimension mismatch: got %d, expected %d", len(data), e.dimensions)
		}
		vec := make([]float32, e.dimensions)
		copy(vec, data[:e.dimensions])
		return vec, nil

	case 3:
		seqLen, hiddenSize := int(shape[1]), int(shape[2])
		if shape[0] != 1 {
			return nil, fmt.Errorf("expected batch size 1, got %d", shape[0])
		}
		if hiddenSize != e.dimensions {
			return nil, fmt.Errorf("hidden size mismatch: got %d, expected %d", hiddenSize, e.dimensions)
		}

		vec := make([]float32, hiddenSize)
		var attended float32
		for i := 0; i < seqLen; i++ {
			if attentionMask[i] == 0 {
				continue
			}
			attended++
			offset := i * hiddenSize
			for j := 0; j < hiddenSize; j++ {
				vec[j] += data[offset+j]
			}
		}
		if attended == 0 {
			return vec, nil
		}
		for j := range vec {
			vec[j] /= attended
		}
		return vec, nil

	default:
		return nil, fmt.Errorf("unexpected output shape: %v", shape)
	}
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

// wordPieceTokenizer is a minimal BERT WordPiece tokenizer backed by a
// HuggingFace tokenizer.json vocabulary.
type wordPieceTokenizer struct {
	vocab    map[string]int
	clsToken int
	sepToken int
	unkToken int
}

func loadTokenizer(path string) (*wordPieceTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return &wordPieceTokenizer{
		vocab:    file.Model.Vocab,
		clsToken: 101, // [CLS]
		sepToken: 102, // [SEP]
		unkToken: 100, // [UNK]
	}, nil
}

func (t *wordPieceTokenizer) tokenize(text string) []int64 {
	var tokens []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		for _, piece := range t.split(word) {
			if id, ok := t.vocab[piece]; ok {
				tokens = append(tokens, int64(id))
			} else {
				tokens = append(tokens, int64(t.unkToken))
			}
		}
	}
	return tokens
}

// split greedily matches the longest known prefix, marking continuations
// with the ## WordPiece prefix.
func (t *wordPieceTokenizer) split(word string) []string {
	var pieces []string
	start := 0
	for start < len(word) {
		end := len(word)
		found := false
		for end > start {
			piece := word[start:end]
			if start > 0 {
				piece = "##" + piece
			}
			if _, ok := t.vocab[piece]; ok {
				pieces = append(pieces, piece)
				start = end
				found = true
				break
			}
			end--
		}
		if !found {
			pieces = append(pieces, "[UNK]")
			start++
		}
	}
	return pieces
}
