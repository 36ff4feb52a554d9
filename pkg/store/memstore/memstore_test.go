package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

func TestDeleteDocumentCascadeLeavesNoResidue(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.UpsertDocument(ctx, model.Document{ID: "doc1", TotalPages: 1})
	_ = s.UpsertChunk(ctx, model.Chunk{ID: "doc1-0000", DocumentID: "doc1", PageNum: 1})
	_ = s.LinkHasChunk(ctx, "doc1", "doc1-0000")
	_ = s.LinkContainsEntity(ctx, model.ContainsEntity{ChunkID: "doc1-0000", EntityKey: "TERM\x00foo", Confidence: 0.9})

	if err := s.DeleteDocumentCascade(ctx, "doc1"); err != nil {
		t.Fatalf("DeleteDocumentCascade: %v", err)
	}

	if _, ok, _ := s.GetDocument(ctx, "doc1"); ok {
		t.Fatal("expected document to be gone")
	}
	summary, _ := s.SchemaSummary(ctx)
	if summary.ChunkCount != 0 || summary.DocumentCount != 0 {
		t.Fatalf("expected zero residue, got %+v", summary)
	}
}

func TestDeleteDocumentCascadeDecrementsAndPrunesEntities(t *testing.T) {
	s := New()
	ctx := context.Background()

	// doc1 and doc2 both mention the same entity once each; deleting doc1
	// should leave the entity at occurrences=1, still referenced by doc2.
	_ = s.UpsertDocument(ctx, model.Document{ID: "doc1", TotalPages: 1})
	_ = s.UpsertChunk(ctx, model.Chunk{ID: "doc1-0000", DocumentID: "doc1", PageNum: 1})
	_ = s.LinkHasChunk(ctx, "doc1", "doc1-0000")
	_ = s.UpsertEntity(ctx, model.Entity{Text: "Term", Normalized: "term", Type: model.EntityTerm, Occurrences: 1})
	_ = s.LinkContainsEntity(ctx, model.ContainsEntity{ChunkID: "doc1-0000", EntityKey: "TERM\x00term", Confidence: 0.9})

	_ = s.UpsertDocument(ctx, model.Document{ID: "doc2", TotalPages: 1})
	_ = s.UpsertChunk(ctx, model.Chunk{ID: "doc2-0000", DocumentID: "doc2", PageNum: 1})
	_ = s.LinkHasChunk(ctx, "doc2", "doc2-0000")
	_ = s.UpsertEntity(ctx, model.Entity{Text: "Term", Normalized: "term", Type: model.EntityTerm, Occurrences: 1})
	_ = s.LinkContainsEntity(ctx, model.ContainsEntity{ChunkID: "doc2-0000", EntityKey: "TERM\x00term", Confidence: 0.9})

	if err := s.DeleteDocumentCascade(ctx, "doc1"); err != nil {
		t.Fatalf("DeleteDocumentCascade: %v", err)
	}

	got, ok, _ := s.GetEntity(ctx, "TERM\x00term")
	if !ok {
		t.Fatal("expected entity still referenced by doc2 to survive")
	}
	if got.Occurrences != 1 {
		t.Fatalf("expected occurrences to decrement to 1, got %d", got.Occurrences)
	}

	if err := s.DeleteDocumentCascade(ctx, "doc2"); err != nil {
		t.Fatalf("DeleteDocumentCascade: %v", err)
	}
	if _, ok, _ := s.GetEntity(ctx, "TERM\x00term"); ok {
		t.Fatal("expected entity to be pruned once its last reference is gone")
	}
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.UpsertDocument(ctx, model.Document{ID: "doc1"})

	wantErr := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context, tx store.GraphStore) error {
		if err := tx.UpsertDocument(ctx, model.Document{ID: "doc2"}); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wantErr, got %v", err)
	}
	if _, ok, _ := s.GetDocument(ctx, "doc2"); ok {
		t.Fatal("expected rolled-back write to be invisible")
	}
	if _, ok, _ := s.GetDocument(ctx, "doc1"); !ok {
		t.Fatal("expected pre-existing document to survive a rolled-back transaction")
	}
}

func TestUpsertEntityIsIdempotentAndAccumulatesOccurrences(t *testing.T) {
	s := New()
	ctx := context.Background()
	e := model.Entity{Text: "FX Forward", Normalized: "fx_forward", Type: model.EntityProduct, Occurrences: 1}
	_ = s.UpsertEntity(ctx, e)
	_ = s.UpsertEntity(ctx, e)

	got, ok, _ := s.GetEntity(ctx, e.Key())
	if !ok {
		t.Fatal("expected entity to exist")
	}
	if got.Occurrences != 2 {
		t.Fatalf("expected occurrences to accumulate to 2, got %d", got.Occurrences)
	}
}

func TestVectorSearchScoresClippedToUnitRange(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.UpsertDocument(ctx, model.Document{ID: "doc1"})
	_ = s.UpsertChunk(ctx, model.Chunk{ID: "c1", DocumentID: "doc1", Embedding: []float32{1, 0}})
	_ = s.UpsertChunk(ctx, model.Chunk{ID: "c2", DocumentID: "doc1", Embedding: []float32{0, 1}})

	results, err := s.VectorSearchChunks(ctx, []float32{1, 0}, store.Filter{}, 10)
	if err != nil {
		t.Fatalf("VectorSearchChunks: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "c1" || results[0].Score < 0.99 {
		t.Fatalf("expected c1 to score ~1 first, got %+v", results[0])
	}
}
