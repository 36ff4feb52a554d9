// Package store defines the property graph's persistence contract:
// typed node/edge writes, the query primitives retrievers run against, and
// the transactional guarantees ingestion depends on.
package store

import (
	"context"

	"github.com/jasonaskew/docugraph/pkg/model"
)

// ScoredChunk pairs a Chunk with a retrieval score from whichever store
// primitive produced it.
type ScoredChunk struct {
	Chunk model.Chunk
	Score float64
}

// SchemaSummary describes the graph's current shape, used by the engine's
// schema endpoint and by diagnostics.
type SchemaSummary struct {
	DocumentCount  int
	ChunkCount     int
	EntityCount    int
	CommunityCount int
	EntityTypes    map[model.EntityType]int
}

// GraphStore is the full persistence contract ingestion and retrieval
// are built against.
// A document's write path (UpsertDocument + its chunks + edges) must be
// atomic; DeleteDocumentCascade must leave no residue of a partially
// ingested document.
type GraphStore interface {
	UpsertDocument(ctx context.Context, doc model.Document) error
	UpsertChunk(ctx context.Context, chunk model.Chunk) error
	UpsertEntity(ctx context.Context, entity model.Entity) error

	// UpdateEntityMetrics writes back an entity's community/centrality
	// metrics in place, leaving Occurrences untouched — unlike
	// UpsertEntity, which accumulates Occurrences as an ingestion delta,
	// this is the write path a rebuild over already-persisted entities
	// must use instead.
	UpdateEntityMetrics(ctx context.Context, key string, metrics model.EntityMetrics) error

	LinkHasChunk(ctx context.Context, documentID, chunkID string) error
	LinkNextChunk(ctx context.Context, fromChunkID, toChunkID string) error
	LinkContainsEntity(ctx context.Context, edge model.ContainsEntity) error
	LinkRelatedTo(ctx context.Context, edge model.RelatedTo) error
	DeleteDocumentCascade(ctx context.Context, documentID string) error

	// WithTransaction runs fn; if fn returns an error, every write fn made
	// through the transactional store passed to it is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txStore GraphStore) error) error

	GetDocument(ctx context.Context, documentID string) (model.Document, bool, error)
	GetEntity(ctx context.Context, key string) (model.Entity, bool, error)
	ListEntities(ctx context.Context) ([]model.Entity, error)
	ListRelatedTo(ctx context.Context) ([]model.RelatedTo, error)

	KeywordSearchChunks(ctx context.Context, keywords []string, filter Filter, limit int) ([]ScoredChunk, error)
	VectorSearchChunks(ctx context.Context, query []float32, filter Filter, limit int) ([]ScoredChunk, error)
	EntityLookup(ctx context.Context, entityKeys []string, filter Filter, limit int) ([]ScoredChunk, error)
	ExpandContext(ctx context.Context, chunkID string, hops int) ([]model.Chunk, error)

	SchemaSummary(ctx context.Context) (SchemaSummary, error)

	Export(ctx context.Context) (*Export, error)
	Import(ctx context.Context, export *Export) error
}

// Filter pushes division/category predicates down to the store so they
// AND with whatever a retriever's own predicate selects.
type Filter struct {
	Division string
	Category string
}

func (f Filter) IsZero() bool { return f.Division == "" && f.Category == "" }

// ChunkRange splits n items into batches of at most size, a batching
// helper used ahead of bulk upserts.
func ChunkRange(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var ranges [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}
