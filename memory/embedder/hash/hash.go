// Package hash provides a deterministic, model-free embedder.
//
// The digest of the text is tiled across the vector and normalized. Same
// text always yields the same vector, near-duplicate texts yield unrelated
// vectors; no semantic notion of closeness is implied. This is explicitly a
// fallback that preserves the similarity-search contract without an
// external model. A production replacement (see the onnx package) must keep
// the same signature and normalization invariant.
package hash

import (
	"context"
	"crypto/sha256"
	"math"
)

// DefaultDimensions matches common embedding-model output sizes.
const DefaultDimensions = 1536

// epsilon guards the normalization against division by zero.
const epsilon = 1e-8

// Embedder maps text to a fixed-length unit vector via SHA-256.
type Embedder struct {
	dimensions int
}

// New creates a hash embedder. dimensions <= 0 selects DefaultDimensions.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed converts text to a deterministic unit vector. Never fails; the
// empty string embeds to the vector of its (defined) empty digest.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	digest := sha256.Sum256([]byte(text))

	// Tile the 32 digest bytes until the vector is full, truncating the
	// final repetition.
	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(digest[i%len(digest)])
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm) + epsilon

	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
