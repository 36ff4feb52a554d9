package engine

import (
	"context"
	"testing"

	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/pkg/ingest"
	"github.com/jasonaskew/docugraph/pkg/store/memstore"
)

func TestStartReportsSchemaSummary(t *testing.T) {
	e := New(memstore.New(), config.Default())
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !e.started {
		t.Errorf("expected engine to be marked started")
	}
}

func TestIngestThenSearchFindsIngestedContent(t *testing.T) {
	cfg := config.Default()
	e := New(memstore.New(), cfg)
	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}

	pdf := samplePDFBytes()
	docs := []ingest.DocumentInput{{ID: "doc-1", Filename: "doc-1.pdf", Data: pdf}}
	if err := e.Ingest(ctx, docs); err != nil {
		t.Skipf("sample PDF fixture could not be ingested in this environment: %v", err)
	}

	result, err := e.Search(ctx, "letter of credit fee", SearchOptions{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Citations) == 0 {
		t.Errorf("expected at least one citation from the ingested document")
	}
	if result.StrategyActuallyUsed == "" {
		t.Errorf("expected StrategyActuallyUsed to be set")
	}
	if result.TotalCandidatesConsidered == 0 {
		t.Errorf("expected TotalCandidatesConsidered to reflect the retrieved candidate pool")
	}
}

func TestSearchWithNonPositiveDeadlineReturnsEmptyImmediately(t *testing.T) {
	cfg := config.Default()
	cfg.QueryDeadline = 0
	e := New(memstore.New(), cfg)
	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}

	result, err := e.Search(ctx, "letter of credit fee", SearchOptions{TopK: 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(result.Citations))
	}
	if result.StrategyActuallyUsed != "deadline" {
		t.Errorf("expected StrategyActuallyUsed %q, got %q", "deadline", result.StrategyActuallyUsed)
	}
}

func TestSearchWithNoCandidatesReturnsEmptyNoError(t *testing.T) {
	cfg := config.Default()
	e := New(memstore.New(), cfg)
	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}

	result, err := e.Search(ctx, "anything at all", SearchOptions{TopK: 5})
	if err != nil {
		t.Fatalf("expected no error against an empty store, got %v", err)
	}
	if result.Citations == nil {
		t.Errorf("expected a non-nil, empty citation slice")
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations from an empty store, got %d", len(result.Citations))
	}
}

func TestIngestDoesNotDoubleEntityOccurrences(t *testing.T) {
	cfg := config.Default()
	e := New(memstore.New(), cfg)
	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}

	pdf := samplePDFBytes()
	docs := []ingest.DocumentInput{{ID: "doc-1", Filename: "doc-1.pdf", Data: pdf}}
	if err := e.Ingest(ctx, docs); err != nil {
		t.Skipf("sample PDF fixture could not be ingested in this environment: %v", err)
	}

	before, err := e.store.ListEntities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	occurrencesBefore := make(map[string]int, len(before))
	for _, ent := range before {
		occurrencesBefore[ent.Key()] = ent.Occurrences
	}
	if len(occurrencesBefore) == 0 {
		t.Skip("sample PDF fixture did not yield any extracted entities in this environment")
	}

	// Ingest re-runs RebuildExclusive internally on every call; a second
	// ingest of the same document must not inflate occurrence counts.
	if err := e.Ingest(ctx, docs); err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	after, err := e.store.ListEntities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, ent := range after {
		want, ok := occurrencesBefore[ent.Key()]
		if !ok {
			continue
		}
		if ent.Occurrences != want {
			t.Errorf("entity %q: occurrences changed from %d to %d across a replayed ingest", ent.Text, want, ent.Occurrences)
		}
	}
}

// samplePDFBytes returns a minimal, syntactically valid single-page PDF.
// Extraction depends on external pdftotext/pdfinfo binaries being present
// on the host; TestIngestThenSearchFindsIngestedContent skips gracefully
// if they are not.
func samplePDFBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\ntrailer<</Root 1 0 R>>\n%%EOF")
}
