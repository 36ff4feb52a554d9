package chunker

import (
	"strings"
	"testing"

	"github.com/jasonaskew/docugraph/pkg/extractor"
)

func TestChunkAssignsContiguousPageNums(t *testing.T) {
	c, err := New(Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pages := []extractor.Page{
		{PageNum: 1, Text: "This is a short first page. It has two sentences."},
		{PageNum: 2, Text: "This is the second page. It also has two sentences."},
	}
	chunks := c.Chunk("doc1", pages)
	if len(chunks) != 2 {
		t.Fatalf("expected one chunk per page, got %d", len(chunks))
	}
	if chunks[0].PageNum != 1 || chunks[1].PageNum != 2 {
		t.Fatalf("expected contiguous page_nums 1,2, got %d,%d", chunks[0].PageNum, chunks[1].PageNum)
	}
	if chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 1 {
		t.Fatalf("expected document-wide chunk_index 0,1, got %d,%d", chunks[0].ChunkIndex, chunks[1].ChunkIndex)
	}
}

func TestChunkDetectsDefinitionAndExample(t *testing.T) {
	c, err := New(Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pages := []extractor.Page{
		{PageNum: 1, Text: "A term is defined as a word with special meaning."},
		{PageNum: 2, Text: "For example, consider a simple illustration of the concept."},
	}
	chunks := c.Chunk("doc1", pages)
	if !chunks[0].HasDefinitions {
		t.Error("expected has_definitions on page 1 chunk")
	}
	if !chunks[1].HasExamples {
		t.Error("expected has_examples on page 2 chunk")
	}
}

func TestChunkPreservesTableBlocks(t *testing.T) {
	c, err := New(Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table := strings.Join([]string{
		"| Name | Rate |",
		"| --- | --- |",
		"| Gold | 1.5% |",
		"| Silver | 0.9% |",
	}, "\n")
	pages := []extractor.Page{{PageNum: 1, Text: table}}
	chunks := c.Chunk("doc1", pages)
	if len(chunks) != 1 {
		t.Fatalf("expected table to collapse into one chunk, got %d", len(chunks))
	}
	if chunks[0].ChunkType != "table" {
		t.Fatalf("expected chunk_type table, got %s", chunks[0].ChunkType)
	}
}

func TestSemanticDensityBounded(t *testing.T) {
	d := semanticDensity("the the the the")
	if d <= 0 || d > 1 {
		t.Fatalf("expected density in (0,1], got %f", d)
	}
	if d != 0.25 {
		t.Fatalf("expected 1 unique / 4 tokens = 0.25, got %f", d)
	}
}
