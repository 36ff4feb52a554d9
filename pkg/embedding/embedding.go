// Package embedding performs batch encoding of text into fixed-dim,
// L2-normalized vectors.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/jasonaskew/docugraph/internal/util"
	"github.com/jasonaskew/docugraph/pkg/errs"
)

// Encoder is the interface the rest of the system depends on; a hosted
// model client can satisfy it without anything upstream changing.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// HashEmbedder is a deterministic, network-free Encoder: it hashes the
// token shingles of each text into a fixed-dim vector via a seeded
// locality-sensitive scheme, then L2-normalizes. Output for a given text
// never depends on what else is in the same batch, and is reproducible
// across processes and machines.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder producing dim-dimensional vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.encodeOne(text)
	}
	return out, nil
}

func (h *HashEmbedder) encodeOne(text string) []float32 {
	vec := make([]float64, h.dim)
	tokens := strings.Fields(strings.ToLower(text))
	for _, shingle := range shingles(tokens, 2) {
		bucket, sign := hashShingle(shingle, h.dim)
		vec[bucket] += sign
	}
	if len(tokens) == 0 {
		vec[0] = 1
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	result := make([]float32, h.dim)
	for i, v := range vec {
		result[i] = float32(v / norm)
	}
	return result
}

// shingles yields unigrams plus n-grams of width n (default bigrams),
// giving the hash a little local word-order sensitivity beyond a bag of
// words.
func shingles(tokens []string, n int) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}

func hashShingle(s string, dim int) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum64()
	bucket := int(sum % uint64(dim))
	if (sum>>63)&1 == 0 {
		return bucket, 1
	}
	return bucket, -1
}

// RetryingEncoder wraps an Encoder with the orchestrator's fixed retry
// policy for ModelUnavailable failures: one initial attempt plus up to
// three retries, backing off 1s/2s/4s.
type RetryingEncoder struct {
	inner Encoder
}

func NewRetryingEncoder(inner Encoder) *RetryingEncoder {
	return &RetryingEncoder{inner: inner}
}

func (r *RetryingEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	// 1 initial attempt plus 3 retries, backing off 1s/2s/4s between them.
	err := util.RetryErrWithContext(ctx, 4, time.Second, func(ctx context.Context) error {
		vecs, err := r.inner.Encode(ctx, texts)
		if err != nil {
			return errs.New("embed", errs.ModelUnavailable, err)
		}
		result = vecs
		return nil
	})
	return result, err
}
