package retrieve

import (
	"context"
	"testing"

	"github.com/jasonaskew/docugraph/pkg/embedding"
	"github.com/jasonaskew/docugraph/pkg/entityextract"
	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/planner"
	"github.com/jasonaskew/docugraph/pkg/store/memstore"
)

func seedStore(t *testing.T, ms *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	doc := model.Document{ID: "d1", TotalPages: 1, Status: model.DocumentValidated}
	if err := ms.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	chunk := model.Chunk{ID: "d1-0000", DocumentID: "d1", Text: "A letter of credit fee applies to international trade.", PageNum: 1}
	if err := ms.UpsertChunk(ctx, chunk); err != nil {
		t.Fatal(err)
	}
	if err := ms.LinkHasChunk(ctx, "d1", chunk.ID); err != nil {
		t.Fatal(err)
	}
}

func TestKeywordRetrieverFindsSeededChunk(t *testing.T) {
	ms := memstore.New()
	seedStore(t, ms)
	p := planner.Plan("what is the letter of credit fee?", planner.Options{})
	results, err := Keyword{Store: ms}.Retrieve(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one keyword match, got none")
	}
}

func TestVectorRetrieverReturnsScores(t *testing.T) {
	ms := memstore.New()
	seedStore(t, ms)
	enc := embedding.NewHashEmbedder(32)
	vecs, _ := enc.Encode(context.Background(), []string{"A letter of credit fee applies to international trade."})
	chunk, _, _ := ms.GetDocument(context.Background(), "d1")
	_ = chunk
	ck := model.Chunk{ID: "d1-0000", DocumentID: "d1", Text: "A letter of credit fee applies to international trade.", PageNum: 1, Embedding: vecs[0]}
	if err := ms.UpsertChunk(context.Background(), ck); err != nil {
		t.Fatal(err)
	}
	p := planner.Plan("letter of credit fee", planner.Options{UseVector: true})
	results, err := Vector{Store: ms, Encoder: enc}.Retrieve(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatalf("expected vector results, got none")
	}
	for _, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("expected score in [0,1], got %f", r.Score)
		}
	}
}

func TestHybridRetrieverFusesWithoutDuplicates(t *testing.T) {
	ms := memstore.New()
	seedStore(t, ms)
	enc := embedding.NewHashEmbedder(32)
	ex := entityextract.New()
	p := planner.Plan("what is the letter of credit fee?", planner.Options{UseVector: true})
	h := Hybrid{Keyword: Keyword{Store: ms}, Vector: Vector{Store: ms, Encoder: enc}, Entity: Entity{Store: ms, Extractor: ex}}
	results, err := h.Retrieve(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Chunk.ID] {
			t.Fatalf("expected no duplicate chunk IDs in fused results, got repeat %s", r.Chunk.ID)
		}
		seen[r.Chunk.ID] = true
	}
}
