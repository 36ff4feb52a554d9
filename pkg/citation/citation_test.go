package citation

import (
	"context"
	"testing"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
	"github.com/jasonaskew/docugraph/pkg/store/memstore"
)

func seed(t *testing.T, ms *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	doc := model.Document{ID: "d1", Filename: "fx-handbook.pdf", Division: "markets", Category: "fx"}
	if err := ms.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
}

func TestAssembleResolvesDocumentName(t *testing.T) {
	ms := memstore.New()
	seed(t, ms)
	a := New(ms)
	ranked := []store.ScoredChunk{
		{Chunk: model.Chunk{ID: "d1-0000", DocumentID: "d1", Text: "fx forward terms", PageNum: 3, ChunkType: model.ChunkDefinition}, Score: 0.8},
	}
	out, err := a.Assemble(context.Background(), ranked)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].DocumentName != "fx-handbook.pdf" {
		t.Fatalf("expected resolved document name, got %+v", out)
	}
}

func TestGroupHierarchicalGroupsByDivisionCategory(t *testing.T) {
	ms := memstore.New()
	seed(t, ms)
	citations := []Citation{{DocumentID: "d1", ChunkID: "d1-0000"}}
	root, err := GroupHierarchical(context.Background(), ms, citations)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 || root.Children[0].Key != "markets" {
		t.Fatalf("expected a single markets division group, got %+v", root.Children)
	}
	if len(root.Children[0].Children) != 1 || root.Children[0].Children[0].Key != "fx" {
		t.Fatalf("expected a fx category group, got %+v", root.Children[0].Children)
	}
}
