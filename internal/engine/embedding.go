package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// EmbeddingDimension is the fixed vector width the similarity index expects.
const EmbeddingDimension = 1536

// Embedder turns incident text into a fixed-dimension vector. Identical
// input text must yield bit-identical vectors so re-indexing is idempotent.
type Embedder interface {
	Embed(text string) []float32
	Dimension() int
}

// DeterministicEmbedder derives a reproducible pseudo-random vector from a
// hash of the input text. It is a stand-in for a real embedding model: the
// pipeline only depends on the contract (fixed dimension, deterministic for
// identical text), so a model-backed Embedder can replace it without
// touching call sites.
type DeterministicEmbedder struct {
	dimension int
}

// NewDeterministicEmbedder returns an embedder producing vectors of the
// given dimension, defaulting to EmbeddingDimension.
func NewDeterministicEmbedder(dimension int) *DeterministicEmbedder {
	if dimension <= 0 {
		dimension = EmbeddingDimension
	}
	return &DeterministicEmbedder{dimension: dimension}
}

// Embed seeds a PRNG from the SHA-256 of the text and draws the vector
// from a standard normal distribution.
func (e *DeterministicEmbedder) Embed(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))

	rng := rand.New(rand.NewSource(seed))
	vector := make([]float32, e.dimension)
	for i := range vector {
		vector[i] = float32(rng.NormFloat64())
	}
	return vector
}

// Dimension returns the configured vector width.
func (e *DeterministicEmbedder) Dimension() int {
	return e.dimension
}
