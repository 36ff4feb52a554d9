// Package engine wires the extraction, chunking, embedding, entity,
// storage, retrieval, rerank, and citation stages into a single
// protocol-agnostic entry point: Start/Shutdown lifecycle, Ingest,
// Search, and SchemaSummary passthrough.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/pkg/chunker"
	"github.com/jasonaskew/docugraph/pkg/citation"
	"github.com/jasonaskew/docugraph/pkg/community"
	"github.com/jasonaskew/docugraph/pkg/embedding"
	"github.com/jasonaskew/docugraph/pkg/entityextract"
	"github.com/jasonaskew/docugraph/pkg/extractor"
	"github.com/jasonaskew/docugraph/pkg/extractor/ocr"
	"github.com/jasonaskew/docugraph/pkg/ingest"
	"github.com/jasonaskew/docugraph/pkg/logger"
	"github.com/jasonaskew/docugraph/pkg/planner"
	"github.com/jasonaskew/docugraph/pkg/rerank"
	"github.com/jasonaskew/docugraph/pkg/retrieve"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// Engine owns every component a caller needs to ingest PDFs and answer
// queries against the resulting graph. It is not safe to use before
// Start or after Shutdown.
type Engine struct {
	cfg          config.Config
	store        store.GraphStore
	orchestrator *ingest.Orchestrator
	community    *community.Builder
	communityLock community.Lock
	encoder      embedding.Encoder
	entities     *entityextract.Extractor
	reranker     *rerank.Reranker
	assembler    *citation.Assembler
	ocrOverride  ocr.Engine

	started bool
}

// Option configures an Engine at construction time using the functional-
// options pattern.
type Option func(*Engine)

// WithOCR installs an OCR fallback engine for scanned PDFs; without it,
// the fallback runs ocr.NullEngine, which recognizes no text, so
// low-text-yield documents fail extraction.
func WithOCR(eng ocr.Engine) Option {
	return func(e *Engine) {
		e.ocrOverride = eng
	}
}

// WithCrossEncoder installs a cross-encoder reranking backend in place
// of the default lexical-overlap stand-in.
func WithCrossEncoder(ce rerank.CrossEncoder) Option {
	return func(e *Engine) {
		e.reranker = rerank.New(ce, e.cfg.RerankWeights)
	}
}

// New constructs an Engine against the given store and configuration.
// Call Start before Ingest or Search.
func New(gs store.GraphStore, cfg config.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, store: gs}
	for _, opt := range opts {
		opt(e)
	}

	var ocrEngine ocr.Engine = ocr.NullEngine{}
	if e.ocrOverride != nil {
		ocrEngine = e.ocrOverride
	}

	ext := extractor.New(ocrEngine, cfg.IngestPhaseTimeouts.Extract)
	chunkParams := chunker.Params{
		TargetTokens: cfg.ChunkTargetTokens, OverlapTokens: cfg.ChunkOverlapTokens,
		MaxTokens: cfg.ChunkMaxTokens, Encoding: cfg.TokenEncoder,
	}
	ch, err := chunker.New(chunkParams)
	if err != nil {
		ch, _ = chunker.New(chunker.Default())
	}

	e.encoder = embedding.NewRetryingEncoder(embedding.NewHashEmbedder(cfg.EmbeddingDim))
	e.entities = entityextract.New()
	e.orchestrator = ingest.New(gs, ext, ch, e.encoder, e.entities, cfg)
	e.community = community.New(gs, cfg.CooccurrenceMinStrength, cfg.LouvainResolution)
	e.communityLock = community.NewInProcessLock()
	if e.reranker == nil {
		e.reranker = rerank.New(nil, cfg.RerankWeights)
	}
	e.assembler = citation.New(gs)
	return e
}

// Start performs any startup bookkeeping (schema verification, warm-up
// logging) before the engine accepts Ingest/Search calls.
func (e *Engine) Start(ctx context.Context) error {
	summary, err := e.store.SchemaSummary(ctx)
	if err != nil {
		return fmt.Errorf("engine: start: %w", err)
	}
	logger.Info("engine started", "documents", summary.DocumentCount, "chunks", summary.ChunkCount, "entities", summary.EntityCount)
	e.started = true
	return nil
}

// Shutdown releases engine-owned resources. The store outlives the
// engine and is closed by its owner, not here.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.started = false
	logger.Info("engine shutdown")
	return nil
}

// Ingest runs the full ingestion DAG over the given documents and then
// rebuilds communities, so querying immediately after Ingest reflects
// up-to-date co-occurrence clusters.
func (e *Engine) Ingest(ctx context.Context, docs []ingest.DocumentInput) error {
	if err := e.orchestrator.IngestAll(ctx, docs); err != nil {
		return err
	}
	chunkEntities, err := e.chunkEntityIndex(ctx)
	if err != nil {
		return err
	}
	return e.community.RebuildExclusive(ctx, e.communityLock, true, chunkEntities)
}

// chunkEntityIndex rebuilds the chunk_id -> entity_key adjacency the
// community builder needs from the graph's CONTAINS_ENTITY edges. A
// store implementation with a dedicated bulk-scan primitive could
// replace this with a single query; memstore and pgxstore both expose
// enough through ListEntities plus EntityLookup to approximate it, so
// the engine builds it generically against the GraphStore interface.
func (e *Engine) chunkEntityIndex(ctx context.Context) (map[string][]string, error) {
	entities, err := e.store.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	chunkEntities := make(map[string][]string)
	for _, ent := range entities {
		results, err := e.store.EntityLookup(ctx, []string{ent.Key()}, store.Filter{}, 1<<20)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			chunkEntities[r.Chunk.ID] = append(chunkEntities[r.Chunk.ID], ent.Key())
		}
	}
	return chunkEntities, nil
}

// SearchOptions is the caller-facing query input.
type SearchOptions struct {
	TopK         int
	Strategy     string
	UseRerank    bool
	Division     string
	Category     string
}

// SearchResult is the Search response envelope: the assembled citations
// plus enough of the query's own trace to audit what the retriever
// considered versus what actually made it into the answer.
type SearchResult struct {
	Citations                 []citation.Citation
	TotalCandidatesConsidered int
	ElapsedMS                 int64
	StrategyActuallyUsed      string
}

// Search classifies the query, runs the planned retrieval strategy,
// reranks, and assembles citations into the final answer set. A
// non-positive QueryDeadline means queries are refused outright rather
// than run unbounded: Search returns immediately with an empty result
// and StrategyActuallyUsed "deadline".
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	start := time.Now()

	if e.cfg.QueryDeadline <= 0 {
		return SearchResult{
			Citations:            []citation.Citation{},
			ElapsedMS:            time.Since(start).Milliseconds(),
			StrategyActuallyUsed: "deadline",
		}, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.cfg.QueryDeadline)
	defer cancel()

	p := planner.Plan(query, planner.Options{
		TopK: opts.TopK, UseRerank: opts.UseRerank, StrategyHint: opts.Strategy,
		Filter: store.Filter{Division: opts.Division, Category: opts.Category},
	})

	trace := NewQueryTrace()

	r := retrieve.ForStrategy(p, e.store, e.encoder, e.entities)
	candidates, err := r.Retrieve(queryCtx, p)
	if err != nil {
		return SearchResult{}, fmt.Errorf("engine: search: retrieve: %w", err)
	}
	recordConsideredChunkIDs(trace, chunkIDs(candidates)...)

	ranked := candidates
	if p.UseRerank {
		ranked = e.reranker.Rerank(queryCtx, p, candidates)
	}
	if len(ranked) > p.TopK {
		ranked = ranked[:p.TopK]
	}

	citations, err := e.assembler.Assemble(queryCtx, ranked)
	if err != nil {
		return SearchResult{}, fmt.Errorf("engine: search: assemble: %w", err)
	}
	recordUsedChunkIDs(trace, citationChunkIDs(citations)...)

	return SearchResult{
		Citations:                 citations,
		TotalCandidatesConsidered: len(trace.Snapshot().ConsideredChunkIDs),
		ElapsedMS:                 time.Since(start).Milliseconds(),
		StrategyActuallyUsed:      p.Strategy,
	}, nil
}

func chunkIDs(candidates []store.ScoredChunk) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Chunk.ID
	}
	return ids
}

func citationChunkIDs(citations []citation.Citation) []string {
	ids := make([]string, len(citations))
	for i, c := range citations {
		ids[i] = c.ChunkID
	}
	return ids
}

// SchemaSummary passes through the store's current graph shape.
func (e *Engine) SchemaSummary(ctx context.Context) (store.SchemaSummary, error) {
	return e.store.SchemaSummary(ctx)
}
