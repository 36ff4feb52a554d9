// Package rerank provides the cross-encoder interface, a deterministic
// lexical stand-in for it, and the fixed-weight fusion formula that
// combines it with upstream retrieval signal.
package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/pkg/planner"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// CrossEncoder scores a (query, chunk text) pair in [0, 1]: higher means
// more relevant. A real deployment swaps in a hosted cross-encoder model;
// LexicalOverlap stands in without one.
type CrossEncoder interface {
	Score(ctx context.Context, query, text string) (float64, error)
}

// LexicalOverlap scores length-normalized token overlap between the query
// and the candidate text, clipped to [0, 1]. It never calls out to a
// model, so reranking degrades gracefully when no cross-encoder is wired.
type LexicalOverlap struct{}

func (LexicalOverlap) Score(_ context.Context, query, text string) (float64, error) {
	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return 0, nil
	}
	tTokens := make(map[string]struct{})
	for _, t := range tokenize(text) {
		tTokens[t] = struct{}{}
	}
	matched := 0
	for _, t := range qTokens {
		if _, ok := tTokens[t]; ok {
			matched++
		}
	}
	score := float64(matched) / float64(len(qTokens))
	if score > 1 {
		score = 1
	}
	return score, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// Reranker fuses retriever-score, cross-encoder, keyword-match, and
// query-type-match signal with configured weights.
type Reranker struct {
	CrossEncoder CrossEncoder
	Weights      config.RerankWeights
}

func New(ce CrossEncoder, weights config.RerankWeights) *Reranker {
	if ce == nil {
		ce = LexicalOverlap{}
	}
	return &Reranker{CrossEncoder: ce, Weights: weights}
}

// Rerank scores and orders candidates. It never returns fewer candidates
// than it was given, and never returns an empty slice when candidates
// exist. If ctx is already done when Rerank is called, it skips fusion
// entirely and returns candidates ordered by their pre-rerank retriever
// score, since a zeroed-out cross-encoder term would otherwise pollute
// the fused score with a signal that was never actually computed. Once
// fusion has started, a cross-encoder failure on an individual candidate
// (as opposed to ctx expiring before the call begins) still falls back
// to treating that candidate's cross-encoder term as 0 rather than
// dropping the candidate.
func (r *Reranker) Rerank(ctx context.Context, p planner.Plan, candidates []store.ScoredChunk) []store.ScoredChunk {
	if ctx.Err() != nil {
		return sortByRetrieverScore(candidates)
	}

	type scored struct {
		chunk store.ScoredChunk
		final float64
	}
	out := make([]scored, len(candidates))

	keywordMatchType := classKeywordMatch(p)

	for i, c := range candidates {
		crossScore := 0.0
		if ctx.Err() == nil {
			if s, err := r.CrossEncoder.Score(ctx, p.Query, c.Chunk.Text); err == nil {
				crossScore = s
			}
		}
		keywordScore := keywordOverlap(p.Keywords, c.Chunk.Text)
		final := r.Weights.CrossEncoder*crossScore +
			r.Weights.Retriever*clip01(c.Score) +
			r.Weights.Keyword*keywordScore +
			r.Weights.QueryType*keywordMatchType(c)
		out[i] = scored{chunk: c, final: final}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].final != out[j].final {
			return out[i].final > out[j].final
		}
		if out[i].chunk.Chunk.SemanticDensity != out[j].chunk.Chunk.SemanticDensity {
			return out[i].chunk.Chunk.SemanticDensity > out[j].chunk.Chunk.SemanticDensity
		}
		return out[i].chunk.Chunk.PageNum < out[j].chunk.Chunk.PageNum
	})

	final := make([]store.ScoredChunk, len(out))
	for i, s := range out {
		final[i] = store.ScoredChunk{Chunk: s.chunk.Chunk, Score: s.final}
	}
	return final
}

// sortByRetrieverScore orders candidates by their existing Score,
// descending, without touching it — the fallback path used when ctx is
// already done before fusion starts.
func sortByRetrieverScore(candidates []store.ScoredChunk) []store.ScoredChunk {
	out := make([]store.ScoredChunk, len(candidates))
	copy(out, candidates)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Chunk.SemanticDensity != out[j].Chunk.SemanticDensity {
			return out[i].Chunk.SemanticDensity > out[j].Chunk.SemanticDensity
		}
		return out[i].Chunk.PageNum < out[j].Chunk.PageNum
	})
	return out
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// keywordOverlap is the fraction of the planner's keywords contained in
// text, not a Jaccard overlap between the two token sets: a keyword can
// be a multi-word phrase, so membership is tested by substring
// containment against the whole chunk rather than set intersection over
// divided-by-union tokens.
func keywordOverlap(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// classKeywordMatch returns a scorer rewarding chunks whose classified
// type agrees with the query's pattern class. Chunk.ChunkType only takes
// the values content, definition, example and table, not query intent,
// so there is no literal chunk_type value to compare the predicted class
// against for most classes. ClassDefinition is the one
// class with a direct proxy: HasDefinitions is binary agreement, 1 or 0.
// ClassFee, ClassLimit, and ClassRequirement don't have a chunk-level
// flag of their own; chunks carrying worked examples tend to carry the
// numbers a fee/limit/requirement query is after, so HasExamples stands
// in as a half-weight proxy signal rather than a binary match.
// ClassProcess and ClassGeneral have no proxy at all and score 0.
func classKeywordMatch(p planner.Plan) func(store.ScoredChunk) float64 {
	return func(c store.ScoredChunk) float64 {
		switch p.Class {
		case planner.ClassDefinition:
			if c.Chunk.HasDefinitions {
				return 1
			}
		case planner.ClassFee, planner.ClassLimit, planner.ClassRequirement:
			if c.Chunk.HasExamples {
				return 0.5
			}
		}
		return 0
	}
}
