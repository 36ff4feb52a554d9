package rerank

import (
	"context"
	"testing"

	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/planner"
	"github.com/jasonaskew/docugraph/pkg/store"
)

func TestRerankNeverDropsCandidates(t *testing.T) {
	r := New(nil, config.Default().RerankWeights)
	p := planner.Plan("letter of credit fee", planner.Options{})
	candidates := []store.ScoredChunk{
		{Chunk: model.Chunk{ID: "a", Text: "letter of credit fee schedule", PageNum: 2}, Score: 0.4},
		{Chunk: model.Chunk{ID: "b", Text: "unrelated content about loans", PageNum: 1}, Score: 0.9},
	}
	out := r.Rerank(context.Background(), p, candidates)
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates preserved, got %d", len(out))
	}
}

func TestRerankFavorsLexicalOverlap(t *testing.T) {
	r := New(nil, config.Default().RerankWeights)
	p := planner.Plan("letter of credit fee", planner.Options{})
	candidates := []store.ScoredChunk{
		{Chunk: model.Chunk{ID: "a", Text: "letter of credit fee schedule", PageNum: 2}, Score: 0.1},
		{Chunk: model.Chunk{ID: "b", Text: "unrelated content about loans", PageNum: 1}, Score: 0.1},
	}
	out := r.Rerank(context.Background(), p, candidates)
	if out[0].Chunk.ID != "a" {
		t.Errorf("expected the lexically-overlapping chunk ranked first, got %s", out[0].Chunk.ID)
	}
}

func TestRerankFallsBackToRetrieverScoreOnExpiredContext(t *testing.T) {
	r := New(nil, config.Default().RerankWeights)
	p := planner.Plan("letter of credit fee", planner.Options{})
	candidates := []store.ScoredChunk{
		{Chunk: model.Chunk{ID: "a", Text: "letter of credit fee schedule", PageNum: 2}, Score: 0.3},
		{Chunk: model.Chunk{ID: "b", Text: "unrelated content about loans", PageNum: 1}, Score: 0.9},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := r.Rerank(ctx, p, candidates)
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates preserved, got %d", len(out))
	}
	if out[0].Chunk.ID != "b" || out[0].Score != 0.9 {
		t.Fatalf("expected pre-rerank retriever-score order with scores untouched, got %+v", out[0])
	}
	if out[1].Chunk.ID != "a" || out[1].Score != 0.3 {
		t.Fatalf("expected pre-rerank retriever-score order with scores untouched, got %+v", out[1])
	}
}

func TestRerankTieBreaksBySemanticDensityThenPage(t *testing.T) {
	r := New(nil, config.RerankWeights{})
	p := planner.Plan("x", planner.Options{})
	candidates := []store.ScoredChunk{
		{Chunk: model.Chunk{ID: "a", SemanticDensity: 0.5, PageNum: 3}, Score: 0},
		{Chunk: model.Chunk{ID: "b", SemanticDensity: 0.9, PageNum: 5}, Score: 0},
		{Chunk: model.Chunk{ID: "c", SemanticDensity: 0.9, PageNum: 1}, Score: 0},
	}
	out := r.Rerank(context.Background(), p, candidates)
	if out[0].Chunk.ID != "c" || out[1].Chunk.ID != "b" || out[2].Chunk.ID != "a" {
		t.Fatalf("expected tie-break order c,b,a got %s,%s,%s", out[0].Chunk.ID, out[1].Chunk.ID, out[2].Chunk.ID)
	}
}
