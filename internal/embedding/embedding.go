// Package embedding provides the text-to-vector port used by the
// repository's vector search and the analyzer/consolidator's similarity
// comparisons. The core treats embedding as a pure function with a known
// output dimension; it has no failure mode beyond "model unavailable,"
// which is fatal at construction time.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder turns text into a fixed-length vector and compares vectors.
type Embedder interface {
	// Embed returns a vector of length Dimension() for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension is fixed for the process lifetime.
	Dimension() int
	// Similarity returns cosine similarity in [-1, 1].
	Similarity(u, v []float32) float64
}

// HashEmbedder is a deterministic, dependency-free embedder: it hashes
// each word token, and each adjacent pair of tokens at half weight, into
// buckets of a fixed-dimension vector and L2-normalizes the result. It requires no external model and no network
// access, so the core engine runs standalone; a real model can be wired
// in later behind the same interface without touching the repository.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder constructs a HashEmbedder with the given dimension.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)
	tokens := tokenize(text)

	add := func(gram string, weight float32) {
		sum := fnv.New64a()
		_, _ = sum.Write([]byte(gram))
		idx := sum.Sum64() % uint64(h.dim)
		sign := float32(1)
		if (sum.Sum64()>>1)%2 == 0 {
			sign = -1
		}
		vec[idx] += sign * weight
	}

	for _, tok := range tokens {
		add(tok, 1.0)
	}
	for i := 0; i+1 < len(tokens); i++ {
		add(tokens[i]+"_"+tokens[i+1], 0.5)
	}

	normalize(vec)
	return vec, nil
}

func (h *HashEmbedder) Similarity(u, v []float32) float64 {
	return Cosine(u, v)
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
	out := fields[:0:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func normalize(vec []float32) {
	var sumSq float64
	for _, x := range vec {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine computes cosine similarity between two equal-length vectors.
// Returns 0 if either vector has zero magnitude or the lengths differ.
func Cosine(u, v []float32) float64 {
	if len(u) != len(v) || len(u) == 0 {
		return 0
	}
	var dot, normU, normV float64
	for i := range u {
		dot += float64(u[i]) * float64(v[i])
		normU += float64(u[i]) * float64(u[i])
		normV += float64(v[i]) * float64(v[i])
	}
	if normU == 0 || normV == 0 {
		return 0
	}
	return dot / (math.Sqrt(normU) * math.Sqrt(normV))
}

// ClampSimilarity clamps a similarity value into [0,1], treating a
// negative cosine as no relevance rather than a negative score.
func ClampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
