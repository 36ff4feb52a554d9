package ingest

import (
	"context"
	"testing"

	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/pkg/chunker"
	"github.com/jasonaskew/docugraph/pkg/embedding"
	"github.com/jasonaskew/docugraph/pkg/entityextract"
	"github.com/jasonaskew/docugraph/pkg/extractor"
	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store/memstore"
)

func TestValidateRejectsSparseCoverage(t *testing.T) {
	cfg := config.Default()
	chunks := []model.Chunk{{PageNum: 1, Text: "short"}}
	if err := validate(cfg, 10, chunks); err == nil {
		t.Fatal("expected validation failure for 1 chunk over 10 pages")
	}
}

func TestValidateAcceptsFullCoverage(t *testing.T) {
	cfg := config.Default()
	var chunks []model.Chunk
	for p := 1; p <= 3; p++ {
		chunks = append(chunks, model.Chunk{PageNum: p, Text: "this page has enough content to pass the mean chars per page threshold easily"})
	}
	if err := validate(cfg, 3, chunks); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
}

func TestWriteDocumentReplaysIdempotently(t *testing.T) {
	gs := memstore.New()
	ch, err := chunker.New(chunker.Default())
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	o := New(gs, extractor.New(nil, 0), ch, embedding.NewHashEmbedder(384), entityextract.New(), config.Default())

	in := DocumentInput{ID: "doc1", Filename: "doc1.pdf", Category: "general"}
	chunks := []model.Chunk{{ID: "doc1-0000", DocumentID: "doc1", PageNum: 1, Text: "first page text"}}
	mentions := [][]entityextract.Mention{{
		{Surface: "Letter of Credit", Normalized: "letter_of_credit", Type: model.EntityProduct, Confidence: 0.85},
	}}

	write := func() {
		ctx := context.Background()
		if err := o.writeDocument(ctx, gs, in, 1, chunks, mentions); err != nil {
			t.Fatalf("writeDocument: %v", err)
		}
	}

	write()
	write()

	ctx := context.Background()
	doc, ok, _ := gs.GetDocument(ctx, "doc1")
	if !ok {
		t.Fatal("expected document to exist after replay")
	}
	if doc.ChunkCount != 1 {
		t.Fatalf("expected chunk_count to stay 1 after replay, got %d", doc.ChunkCount)
	}

	export, err := gs.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	hasChunkEdges := 0
	for _, r := range export.Relationships {
		if r.Kind == "HAS_CHUNK" {
			hasChunkEdges++
		}
	}
	if hasChunkEdges != doc.ChunkCount {
		t.Fatalf("expected chunk_count == HAS_CHUNK edge count, got chunk_count=%d edges=%d", doc.ChunkCount, hasChunkEdges)
	}

	entity, ok, _ := gs.GetEntity(ctx, model.Entity{Type: model.EntityProduct, Normalized: "letter_of_credit"}.Key())
	if !ok {
		t.Fatal("expected entity to exist after replay")
	}
	if entity.Occurrences != 1 {
		t.Fatalf("expected entity occurrences to stay 1 after replay, not accumulate, got %d", entity.Occurrences)
	}
}

func TestIngestOneLeavesNoDocumentWhenExtractionFails(t *testing.T) {
	gs := memstore.New()
	ch, err := chunker.New(chunker.Default())
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	o := New(gs, extractor.New(nil, 0), ch, embedding.NewHashEmbedder(384), entityextract.New(), config.Default())

	in := DocumentInput{ID: "doc-empty", Filename: "doc-empty.pdf", Data: nil, Category: "general"}
	_ = o.ingestOne(context.Background(), in)

	if _, ok, _ := gs.GetDocument(context.Background(), "doc-empty"); ok {
		t.Fatal("expected failed ingestion to leave no document behind")
	}
}
