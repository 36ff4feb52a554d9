// Package chunker splits extracted page text into a finite, ordered
// sequence of overlapping, semantically-bounded chunks.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jasonaskew/docugraph/pkg/extractor"
	"github.com/jasonaskew/docugraph/pkg/model"

	"github.com/pkoukk/tiktoken-go"
)

// Params are the chunker's size parameters.
type Params struct {
	TargetTokens  int
	OverlapTokens int
	MaxTokens     int
	Encoding      string
}

// Default returns T=512, O=128, max=1024 over the o200k_base encoding.
func Default() Params {
	return Params{TargetTokens: 512, OverlapTokens: 128, MaxTokens: 1024, Encoding: "o200k_base"}
}

// Chunker turns a document's pages into Chunks. The token count backing
// every size decision comes from a single fixed tokenizer (tiktoken-go's
// o200k_base encoding), so chunk boundaries are reproducible regardless
// of which embedding model later consumes the text.
type Chunker struct {
	params  Params
	encoder *tiktoken.Tiktoken
}

// New builds a Chunker for the given params.
func New(params Params) (*Chunker, error) {
	if params.Encoding == "" {
		params.Encoding = "o200k_base"
	}
	enc, err := tiktoken.GetEncoding(params.Encoding)
	if err != nil {
		return nil, fmt.Errorf("chunker: loading encoding %q: %w", params.Encoding, err)
	}
	return &Chunker{params: params, encoder: enc}, nil
}

func (c *Chunker) tokenCount(s string) int {
	return len(c.encoder.Encode(s, nil, nil))
}

// Chunk produces the ordered chunk sequence for documentID across all of
// its pages. chunk_index is assigned document-wide, in page order.
func (c *Chunker) Chunk(documentID string, pages []extractor.Page) []model.Chunk {
	var out []model.Chunk
	index := 0
	for _, page := range pages {
		segments := segmentPage(page.Text)
		for _, seg := range segments {
			if seg.isTable {
				out = append(out, c.buildChunk(documentID, page.PageNum, index, seg.text, model.ChunkTable))
				index++
				continue
			}
			for _, text := range c.windowSentences(seg.sentences) {
				chunkType := classify(text)
				out = append(out, c.buildChunk(documentID, page.PageNum, index, text, chunkType))
				index++
			}
		}
	}
	return out
}

func (c *Chunker) buildChunk(documentID string, pageNum, index int, text string, chunkType model.ChunkType) model.Chunk {
	return model.Chunk{
		ID:              fmt.Sprintf("%s-%04d", documentID, index),
		DocumentID:      documentID,
		Text:            text,
		PageNum:         pageNum,
		ChunkIndex:      index,
		SemanticDensity: semanticDensity(text),
		ChunkType:       chunkType,
		HasDefinitions:  definitionRe.MatchString(text),
		HasExamples:     exampleRe.MatchString(text),
	}
}

// windowSentences walks sentences accumulating tokens until the target
// size is reached, then backs the next window up by approximately
// OverlapTokens. Windows are built from whole sentences only, so a split
// always falls on a sentence boundary — there is no mid-sentence
// boundary search to do. A window ends with the sentence that brings it
// to TargetTokens or more, unless adding that sentence would push it past
// MaxTokens, in which case the window ends one sentence earlier; a single
// sentence longer than MaxTokens still forms a window of its own.
func (c *Chunker) windowSentences(sentences []string) []string {
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(sentences) {
		end := start
		tokens := 0
		for end < len(sentences) {
			next := tokens + c.tokenCount(sentences[end]) + 1
			if next > c.params.MaxTokens && end > start {
				break
			}
			tokens = next
			end++
			if tokens >= c.params.TargetTokens {
				break
			}
		}
		if end == start {
			end = start + 1
		}
		chunks = append(chunks, strings.Join(sentences[start:end], " "))

		if end >= len(sentences) {
			break
		}

		overlapStart := end
		overlapTokens := 0
		for overlapStart > start && overlapTokens < c.params.OverlapTokens {
			overlapStart--
			overlapTokens += c.tokenCount(sentences[overlapStart]) + 1
		}
		if overlapStart <= start {
			overlapStart = end
		}
		start = overlapStart
	}
	return chunks
}

type segment struct {
	isTable   bool
	text      string
	sentences []string
}

var tableDelimRe = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)+\|?\s*$`)

func isPipeTableRow(line string) bool {
	return strings.Count(line, "|") >= 2
}

var alignedColumnsRe = regexp.MustCompile(`\S+(\s{2,}\S+){2,}`)

func isWhitespaceTableRow(line string) bool {
	return alignedColumnsRe.MatchString(strings.TrimRight(line, " \t"))
}

func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	return isPipeTableRow(trimmed) || tableDelimRe.MatchString(trimmed) || isWhitespaceTableRow(line)
}

// segmentPage splits a page's text into alternating table and prose runs.
// A run of ≥3 consecutive table-shaped lines becomes one table segment,
// kept intact instead of being sentence-split; everything else is
// sentence-split prose.
func segmentPage(text string) []segment {
	lines := strings.Split(text, "\n")
	var segments []segment
	var prose []string
	var tableLines []string

	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		joined := strings.Join(prose, "\n")
		segments = append(segments, segment{sentences: splitIntoSentences(joined)})
		prose = nil
	}
	flushTable := func() {
		if len(tableLines) < 3 {
			prose = append(prose, tableLines...)
			tableLines = nil
			return
		}
		segments = append(segments, segment{isTable: true, text: strings.Join(tableLines, "\n")})
		tableLines = nil
	}

	for _, line := range lines {
		if isTableRow(line) {
			tableLines = append(tableLines, line)
			continue
		}
		if len(tableLines) > 0 {
			flushProse()
			flushTable()
		}
		prose = append(prose, line)
	}
	if len(tableLines) > 0 {
		flushProse()
		flushTable()
	}
	flushProse()

	return segments
}

var (
	definitionRe = regexp.MustCompile(`(?i)\bis (defined as|a|an)\b|^[A-Za-z0-9 /\-]+:\s+\S`)
	exampleRe    = regexp.MustCompile(`(?i)\b(for example|e\.g\.|such as)\b`)
)

func classify(text string) model.ChunkType {
	switch {
	case definitionRe.MatchString(text):
		return model.ChunkDefinition
	case exampleRe.MatchString(text):
		return model.ChunkExample
	default:
		return model.ChunkContent
	}
}

// semanticDensity is the unique-token ratio of a chunk's text, a cheap
// proxy for how much distinct content it carries versus repetition.
func semanticDensity(text string) float64 {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return float64(len(seen)) / float64(len(tokens))
}
