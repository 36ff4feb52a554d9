// Package ingest runs the per-document ingestion DAG
// (Extract → Chunk → (Embed ∥ ExtractEntities) → Write → Validate →
// MarkValidated) across a bounded worker pool with retry and rollback.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/internal/ids"
	"github.com/jasonaskew/docugraph/internal/util"
	"github.com/jasonaskew/docugraph/pkg/chunker"
	"github.com/jasonaskew/docugraph/pkg/embedding"
	"github.com/jasonaskew/docugraph/pkg/entityextract"
	"github.com/jasonaskew/docugraph/pkg/errs"
	"github.com/jasonaskew/docugraph/pkg/extractor"
	"github.com/jasonaskew/docugraph/pkg/logger"
	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"

	"golang.org/x/sync/errgroup"
)

// DocumentInput is one file queued for ingestion.
type DocumentInput struct {
	ID       string
	Filename string
	Data     []byte
	Category string
	Division string
}

// ErrorRecord is an append-only entry logging one ingestion failure.
type ErrorRecord struct {
	DocumentID string
	Phase      string
	ErrorKind  errs.Kind
	Timestamp  time.Time
	Retryable  bool
}

// Orchestrator runs the ingestion DAG across a bounded worker pool.
type Orchestrator struct {
	store     store.GraphStore
	extractor *extractor.Extractor
	chunker   *chunker.Chunker
	encoder   embedding.Encoder
	entities  *entityextract.Extractor
	cfg       config.Config

	mu      sync.Mutex
	errLog  []ErrorRecord
}

// New wires the extractor, chunker, embedder, and entity extractor
// together behind the ingestion orchestrator.
func New(gs store.GraphStore, ext *extractor.Extractor, ch *chunker.Chunker, enc embedding.Encoder, ee *entityextract.Extractor, cfg config.Config) *Orchestrator {
	return &Orchestrator{store: gs, extractor: ext, chunker: ch, encoder: enc, entities: ee, cfg: cfg}
}

// Errors returns a copy of the accumulated error-tracking log.
func (o *Orchestrator) Errors() []ErrorRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ErrorRecord(nil), o.errLog...)
}

func (o *Orchestrator) recordError(documentID, phase string, kind errs.Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errLog = append(o.errLog, ErrorRecord{
		DocumentID: documentID, Phase: phase, ErrorKind: kind,
		Timestamp: time.Now().UTC(), Retryable: kind.Retryable(),
	})
}

// IngestAll processes every input across a worker pool bounded by
// cfg.Workers, one document at a time per worker. A failing document does
// not cancel its siblings: each document's failure is isolated and
// recorded independently.
func (o *Orchestrator) IngestAll(ctx context.Context, inputs []DocumentInput) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(util.Max(1, util.Min(o.cfg.Workers, 8)))

	for _, in := range inputs {
		in := in
		eg.Go(func() error {
			if err := o.ingestWithRetry(egCtx, in); err != nil {
				logger.Warn("[Ingest] document failed after retries", "document_id", in.ID, "err", err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (o *Orchestrator) ingestWithRetry(ctx context.Context, in DocumentInput) error {
	var lastErr error
	for attempt := 0; attempt < o.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := o.ingestOne(ctx, in)
		if err == nil {
			return nil
		}
		lastErr = err

		var typed *errs.Error
		phase, kind := "ingest", errs.InvariantViolation
		if ok := asErrsError(err, &typed); ok {
			phase, kind = typed.Phase, typed.Kind
		}
		o.recordError(in.ID, phase, kind)

		if !kind.Retryable() {
			break
		}
		backoff := time.Duration(1<<attempt) * time.Second
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	if err := o.store.DeleteDocumentCascade(ctx, in.ID); err != nil {
		logger.Error("[Ingest] rollback failed", "document_id", in.ID, "err", err)
	}
	return lastErr
}

func asErrsError(err error, target **errs.Error) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*errs.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func (o *Orchestrator) ingestOne(ctx context.Context, in DocumentInput) error {
	extractCtx, cancel := context.WithTimeout(ctx, o.cfg.IngestPhaseTimeouts.Extract)
	pages, err := o.extractor.Extract(extractCtx, in.Filename, in.Data)
	cancel()
	if err != nil {
		return err
	}

	chunks := o.chunker.Chunk(in.ID, pages)
	if len(chunks) == 0 {
		return errs.New("chunk", errs.EmptyDocument, fmt.Errorf("%s: no chunks produced", in.ID))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	embedCtx, cancel := context.WithTimeout(egCtx, o.cfg.IngestPhaseTimeouts.Embed)
	entityCtx, cancelEntities := context.WithTimeout(egCtx, o.cfg.IngestPhaseTimeouts.Entities)

	var embeddings [][]float32
	var mentionsByChunk [][]entityextract.Mention

	eg.Go(func() error {
		defer cancel()
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vecs, err := o.encoder.Encode(embedCtx, texts)
		if err != nil {
			return errs.New("embed", errs.ModelUnavailable, err)
		}
		embeddings = vecs
		return nil
	})
	eg.Go(func() error {
		defer cancelEntities()
		mentionsByChunk = make([][]entityextract.Mention, len(chunks))
		for i, c := range chunks {
			mentionsByChunk[i] = o.entities.Extract(c.Text)
			if entityCtx.Err() != nil {
				return errs.New("entities", errs.TimeoutExceeded, entityCtx.Err())
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	totalPages := 0
	for _, p := range pages {
		if p.PageNum > totalPages {
			totalPages = p.PageNum
		}
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, o.cfg.IngestPhaseTimeouts.Write)
	defer cancelWrite()

	err = o.store.WithTransaction(writeCtx, func(ctx context.Context, tx store.GraphStore) error {
		return o.writeDocument(ctx, tx, in, totalPages, chunks, mentionsByChunk)
	})
	if err != nil {
		return errs.New("write", errs.StoreUnavailable, err)
	}

	return o.validateAndFinalize(ctx, in.ID, totalPages, chunks)
}

func (o *Orchestrator) writeDocument(ctx context.Context, tx store.GraphStore, in DocumentInput, totalPages int, chunks []model.Chunk, mentionsByChunk [][]entityextract.Mention) error {
	// Re-ingesting the same document ID must not double its edges or
	// entity occurrences: clear any prior write before replaying it.
	if err := tx.DeleteDocumentCascade(ctx, in.ID); err != nil {
		return err
	}

	doc := model.Document{
		ID: in.ID, Filename: in.Filename, TotalPages: totalPages, Category: in.Category, Division: in.Division,
		ChunkCount: len(chunks), Status: model.DocumentIngested, IngestedAt: time.Now().UTC(),
	}
	if err := tx.UpsertDocument(ctx, doc); err != nil {
		return err
	}

	var prevChunkID string
	for i, chunk := range chunks {
		if err := tx.UpsertChunk(ctx, chunk); err != nil {
			return err
		}
		if err := tx.LinkHasChunk(ctx, in.ID, chunk.ID); err != nil {
			return err
		}
		if i > 0 {
			if err := tx.LinkNextChunk(ctx, prevChunkID, chunk.ID); err != nil {
				return err
			}
		}
		prevChunkID = chunk.ID

		for _, mention := range mentionsByChunk[i] {
			entity := model.Entity{
				ID: ids.New(), Text: mention.Surface, Normalized: mention.Normalized,
				Type: mention.Type, FirstSeen: time.Now().UTC(), Occurrences: 1,
			}
			if err := tx.UpsertEntity(ctx, entity); err != nil {
				return err
			}
			if err := tx.LinkContainsEntity(ctx, model.ContainsEntity{
				ChunkID: chunk.ID, EntityKey: entity.Key(), Confidence: mention.Confidence,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateAndFinalize checks the document against its validation
// criteria and either marks it validated or rolls it back entirely.
func (o *Orchestrator) validateAndFinalize(ctx context.Context, documentID string, totalPages int, chunks []model.Chunk) error {
	if err := validate(o.cfg, totalPages, chunks); err != nil {
		_ = o.store.DeleteDocumentCascade(ctx, documentID)
		return err
	}

	doc, ok, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return errs.New("validate", errs.StoreUnavailable, err)
	}
	if !ok {
		return errs.New("validate", errs.InvariantViolation, fmt.Errorf("%s: document vanished before validation", documentID))
	}
	doc.Status = model.DocumentValidated
	return o.store.UpsertDocument(ctx, doc)
}

func validate(cfg config.Config, totalPages int, chunks []model.Chunk) error {
	if len(chunks) < 1 {
		return errs.New("validate", errs.ValidationFailed, fmt.Errorf("chunk_count must be >= 1"))
	}
	if totalPages > 0 && float64(len(chunks))/float64(totalPages) < cfg.Validation.MinChunkPageRatio {
		return errs.New("validate", errs.ValidationFailed, fmt.Errorf("chunk/page ratio below %.2f", cfg.Validation.MinChunkPageRatio))
	}

	covered := make(map[int]bool)
	totalChars := 0
	for _, c := range chunks {
		covered[c.PageNum] = true
		totalChars += len(c.Text)
	}
	for p := 1; p <= totalPages; p++ {
		if !covered[p] {
			return errs.New("validate", errs.ValidationFailed, fmt.Errorf("page %d has no covering chunk", p))
		}
	}
	if totalPages > 0 && float64(totalChars)/float64(totalPages) < cfg.Validation.MinCharsPerPage {
		return errs.New("validate", errs.ValidationFailed, fmt.Errorf("mean chars/page below %.0f", cfg.Validation.MinCharsPerPage))
	}
	return nil
}
