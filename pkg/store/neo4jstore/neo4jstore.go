// Package neo4jstore is an optional durable GraphStore backend that
// persists the property graph natively as a Neo4j graph instead of
// relational tables, for deployments that already run Neo4j for other
// graph workloads. The default backend remains memstore; pgxstore and
// neo4jstore are both wired in only when their respective Config URLs
// are set.
package neo4jstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// Store is a neo4j-go-driver-backed GraphStore. dbLock serializes the
// document write path the same way pgxstore guards multi-statement
// writes, since a single Rebuild/Ingest call issues several related
// Cypher statements that must appear atomic to concurrent readers.
type Store struct {
	driver neo4j.DriverWithContext
	dbLock sync.Mutex
}

// New opens a Neo4j driver against uri with basic auth and returns a
// Store. Schema constraints (uniqueness on Document.id, Chunk.id,
// Entity.key) are expected to be created separately, out of band.
func New(ctx context.Context, uri, username, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: connect: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4jstore: verify connectivity: %w", err)
	}
	return &Store{driver: driver}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}

func run(ctx context.Context, session neo4j.SessionWithContext, cypher string, params map[string]any) error {
	_, err := session.Run(ctx, cypher, params)
	return err
}

func (s *Store) UpsertDocument(ctx context.Context, doc model.Document) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	return run(ctx, session, `
		MERGE (d:Document {id: $id})
		SET d.filename = $filename, d.total_pages = $total_pages, d.category = $category,
			d.division = $division, d.chunk_count = $chunk_count, d.status = $status, d.ingested_at = $ingested_at
	`, map[string]any{
		"id": doc.ID, "filename": doc.Filename, "total_pages": doc.TotalPages, "category": doc.Category,
		"division": doc.Division, "chunk_count": doc.ChunkCount, "status": string(doc.Status),
		"ingested_at": doc.IngestedAt.Unix(),
	})
}

func (s *Store) UpsertChunk(ctx context.Context, chunk model.Chunk) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	embedding := make([]float64, len(chunk.Embedding))
	for i, v := range chunk.Embedding {
		embedding[i] = float64(v)
	}
	return run(ctx, session, `
		MERGE (c:Chunk {id: $id})
		SET c.document_id = $document_id, c.text = $text, c.page_num = $page_num, c.chunk_index = $chunk_index,
			c.embedding = $embedding, c.semantic_density = $semantic_density, c.chunk_type = $chunk_type,
			c.has_definitions = $has_definitions, c.has_examples = $has_examples
	`, map[string]any{
		"id": chunk.ID, "document_id": chunk.DocumentID, "text": chunk.Text, "page_num": chunk.PageNum,
		"chunk_index": chunk.ChunkIndex, "embedding": embedding, "semantic_density": chunk.SemanticDensity,
		"chunk_type": string(chunk.ChunkType), "has_definitions": chunk.HasDefinitions, "has_examples": chunk.HasExamples,
	})
}

// UpsertEntity increments occurrences on conflict, matching the
// accumulate-don't-overwrite semantics every GraphStore implementation
// gives entities.
func (s *Store) UpsertEntity(ctx context.Context, entity model.Entity) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	return run(ctx, session, `
		MERGE (e:Entity {key: $key})
		ON CREATE SET e.occurrences = $occurrences, e.first_seen = $first_seen
		ON MATCH SET e.occurrences = e.occurrences + $occurrences
		SET e.text = $text, e.normalized = $normalized, e.type = $type,
			e.community_id = $community_id, e.degree_centrality = $degree_centrality,
			e.betweenness_centrality = $betweenness_centrality, e.is_bridge = $is_bridge,
			e.connected_communities = $connected_communities
	`, map[string]any{
		"key": entity.Key(), "text": entity.Text, "normalized": entity.Normalized, "type": string(entity.Type),
		"first_seen": entity.FirstSeen.Unix(), "occurrences": entity.Occurrences, "community_id": entity.CommunityID,
		"degree_centrality": entity.DegreeCentrality, "betweenness_centrality": entity.BetweennessCentrality,
		"is_bridge": entity.IsBridge, "connected_communities": entity.ConnectedCommunities,
	})
}

// UpdateEntityMetrics writes back community/centrality/bridge properties
// only, leaving occurrences untouched. UpsertEntity's ON MATCH clause
// adds occurrences as an ingestion delta, so a rebuild over the full
// entity set must go through this path instead or occurrences would
// double on every rebuild.
func (s *Store) UpdateEntityMetrics(ctx context.Context, key string, metrics model.EntityMetrics) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	return run(ctx, session, `
		MATCH (e:Entity {key: $key})
		SET e.community_id = $community_id, e.degree_centrality = $degree_centrality,
			e.betweenness_centrality = $betweenness_centrality, e.is_bridge = $is_bridge,
			e.connected_communities = $connected_communities
	`, map[string]any{
		"key": key, "community_id": metrics.CommunityID, "degree_centrality": metrics.DegreeCentrality,
		"betweenness_centrality": metrics.BetweennessCentrality, "is_bridge": metrics.IsBridge,
		"connected_communities": metrics.ConnectedCommunities,
	})
}

func (s *Store) LinkHasChunk(ctx context.Context, documentID, chunkID string) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	return run(ctx, session, `
		MATCH (d:Document {id: $document_id}), (c:Chunk {id: $chunk_id})
		MERGE (d)-[:HAS_CHUNK]->(c)
	`, map[string]any{"document_id": documentID, "chunk_id": chunkID})
}

func (s *Store) LinkNextChunk(ctx context.Context, fromChunkID, toChunkID string) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	return run(ctx, session, `
		MATCH (a:Chunk {id: $from}), (b:Chunk {id: $to})
		MERGE (a)-[:NEXT_CHUNK]->(b)
	`, map[string]any{"from": fromChunkID, "to": toChunkID})
}

func (s *Store) LinkContainsEntity(ctx context.Context, edge model.ContainsEntity) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	return run(ctx, session, `
		MATCH (c:Chunk {id: $chunk_id}), (e:Entity {key: $entity_key})
		MERGE (c)-[r:CONTAINS_ENTITY]->(e)
		SET r.confidence = CASE WHEN r.confidence IS NULL OR r.confidence < $confidence THEN $confidence ELSE r.confidence END
	`, map[string]any{"chunk_id": edge.ChunkID, "entity_key": edge.EntityKey, "confidence": edge.Confidence})
}

func (s *Store) LinkRelatedTo(ctx context.Context, edge model.RelatedTo) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	key := model.UndirectedKey(edge.A, edge.B)
	return run(ctx, session, `
		MATCH (a:Entity {key: $a}), (b:Entity {key: $b})
		MERGE (a)-[r:RELATED_TO {pair_key: $key}]-(b)
		SET r.strength = $strength
	`, map[string]any{"a": edge.A, "b": edge.B, "key": key, "strength": edge.Strength})
}

// DeleteDocumentCascade decrements the occurrence count of every entity
// the document's chunks' CONTAINS_ENTITY edges reference, detaches and
// deletes any entity that reaches zero, then detaches and deletes the
// document along with every chunk it owns. Entities still referenced by
// other documents are left in place.
func (s *Store) DeleteDocumentCascade(ctx context.Context, documentID string) error {
	session := s.session(ctx)
	defer session.Close(ctx)
	if err := run(ctx, session, `
		MATCH (d:Document {id: $id})-[:HAS_CHUNK]->(:Chunk)-[r:CONTAINS_ENTITY]->(e:Entity)
		WITH e, count(r) AS cnt
		SET e.occurrences = e.occurrences - cnt
		WITH e
		WHERE e.occurrences <= 0
		DETACH DELETE e
	`, map[string]any{"id": documentID}); err != nil {
		return err
	}
	return run(ctx, session, `
		MATCH (d:Document {id: $id})
		OPTIONAL MATCH (d)-[:HAS_CHUNK]->(c:Chunk)
		DETACH DELETE d, c
	`, map[string]any{"id": documentID})
}

// WithTransaction guards the full write sequence with dbLock rather than
// a real multi-statement Neo4j transaction, matching pgxstore's
// acknowledged simplification: it gives single-writer serialization, not
// true rollback-on-error, since the callback issues its writes through
// the same session-per-call Store rather than one shared transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, txStore store.GraphStore) error) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	return fn(ctx, s)
}

var _ store.GraphStore = (*Store)(nil)
