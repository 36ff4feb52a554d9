package pgxstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

func (s *Store) GetDocument(ctx context.Context, documentID string) (model.Document, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, filename, total_pages, category, division, chunk_count, status, ingested_at FROM documents WHERE id = $1`, documentID)
	var d model.Document
	if err := row.Scan(&d.ID, &d.Filename, &d.TotalPages, &d.Category, &d.Division, &d.ChunkCount, &d.Status, &d.IngestedAt); err != nil {
		if err == pgx.ErrNoRows {
			return model.Document{}, false, nil
		}
		return model.Document{}, false, err
	}
	return d, true, nil
}

func (s *Store) GetEntity(ctx context.Context, key string) (model.Entity, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT text, normalized, type, first_seen, occurrences, community_id,
			degree_centrality, betweenness_centrality, is_bridge, connected_communities
		FROM entities WHERE key = $1`, key)
	var e model.Entity
	if err := row.Scan(&e.Text, &e.Normalized, &e.Type, &e.FirstSeen, &e.Occurrences,
		&e.CommunityID, &e.DegreeCentrality, &e.BetweennessCentrality, &e.IsBridge, &e.ConnectedCommunities); err != nil {
		if err == pgx.ErrNoRows {
			return model.Entity{}, false, nil
		}
		return model.Entity{}, false, err
	}
	return e, true, nil
}

func (s *Store) ListEntities(ctx context.Context) ([]model.Entity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT text, normalized, type, first_seen, occurrences, community_id,
			degree_centrality, betweenness_centrality, is_bridge, connected_communities
		FROM entities ORDER BY normalized, type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var e model.Entity
		if err := rows.Scan(&e.Text, &e.Normalized, &e.Type, &e.FirstSeen, &e.Occurrences,
			&e.CommunityID, &e.DegreeCentrality, &e.BetweennessCentrality, &e.IsBridge, &e.ConnectedCommunities); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListRelatedTo(ctx context.Context) ([]model.RelatedTo, error) {
	rows, err := s.pool.Query(ctx, `SELECT entity_a, entity_b, strength FROM related_to`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RelatedTo
	for rows.Next() {
		var r model.RelatedTo
		if err := rows.Scan(&r.A, &r.B, &r.Strength); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func filterClause(filter store.Filter, startArg int) (string, []any) {
	var clauses []string
	var args []any
	n := startArg
	if filter.Division != "" {
		clauses = append(clauses, fmt.Sprintf("d.division = $%d", n))
		args = append(args, filter.Division)
		n++
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("d.category = $%d", n))
		args = append(args, filter.Category)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

// KeywordSearchChunks runs a Postgres full-text OR query across the
// chunk's tsvector index and scores each hit with ts_rank. That score is
// not the matched-keyword fraction memstore and neo4jstore return.
func (s *Store) KeywordSearchChunks(ctx context.Context, keywords []string, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	query := strings.Join(keywords, " | ")
	clause, fargs := filterClause(filter, 4)
	sql := fmt.Sprintf(`
		SELECT c.id, c.document_id, c.text, c.page_num, c.chunk_index, c.embedding,
			c.semantic_density, c.chunk_type, c.has_definitions, c.has_examples,
			ts_rank(to_tsvector('english', c.text), to_tsquery('english', $1)) AS rank
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE to_tsvector('english', c.text) @@ to_tsquery('english', $1)%s
		ORDER BY rank DESC LIMIT $2 OFFSET $3`, clause)
	args := append([]any{query, limit, 0}, fargs...)
	return s.scanScoredChunks(ctx, sql, args...)
}

func (s *Store) VectorSearchChunks(ctx context.Context, query []float32, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	clause, fargs := filterClause(filter, 4)
	sql := fmt.Sprintf(`
		SELECT c.id, c.document_id, c.text, c.page_num, c.chunk_index, c.embedding,
			c.semantic_density, c.chunk_type, c.has_definitions, c.has_examples,
			1 - (c.embedding <=> $1) AS score
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE true%s
		ORDER BY c.embedding <=> $1 LIMIT $2 OFFSET $3`, clause)
	args := append([]any{pgvector.NewVector(query), limit, 0}, fargs...)
	return s.scanScoredChunks(ctx, sql, args...)
}

func (s *Store) EntityLookup(ctx context.Context, entityKeys []string, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	clause, fargs := filterClause(filter, 4)
	sql := fmt.Sprintf(`
		SELECT c.id, c.document_id, c.text, c.page_num, c.chunk_index, c.embedding,
			c.semantic_density, c.chunk_type, c.has_definitions, c.has_examples,
			SUM(ce.confidence) AS score
		FROM contains_entity ce
		JOIN chunks c ON c.id = ce.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE ce.entity_key = ANY($1)%s
		GROUP BY c.id ORDER BY score DESC LIMIT $2 OFFSET $3`, clause)
	args := append([]any{entityKeys, limit, 0}, fargs...)
	return s.scanScoredChunks(ctx, sql, args...)
}

func (s *Store) ExpandContext(ctx context.Context, chunkID string, hops int) ([]model.Chunk, error) {
	if hops < 1 {
		hops = 1
	}
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE expansion(id, depth) AS (
			SELECT $1::text, 0
			UNION
			SELECT n.to_chunk_id, e.depth + 1
			FROM expansion e JOIN next_chunk n ON n.from_chunk_id = e.id
			WHERE e.depth < $2
		)
		SELECT c.id, c.document_id, c.text, c.page_num, c.chunk_index, c.embedding,
			c.semantic_density, c.chunk_type, c.has_definitions, c.has_examples
		FROM chunks c JOIN expansion e ON e.id = c.id`, chunkID, hops)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SchemaSummary(ctx context.Context) (store.SchemaSummary, error) {
	var summary store.SchemaSummary
	row := s.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM documents), (SELECT count(*) FROM chunks),
			(SELECT count(*) FROM entities), (SELECT count(DISTINCT community_id) FROM entities WHERE community_id != '')`)
	if err := row.Scan(&summary.DocumentCount, &summary.ChunkCount, &summary.EntityCount, &summary.CommunityCount); err != nil {
		return store.SchemaSummary{}, err
	}
	summary.EntityTypes = make(map[model.EntityType]int)
	return summary, nil
}

type scannableRow interface {
	Scan(dest ...any) error
}

func scanChunk(row scannableRow) (model.Chunk, error) {
	var c model.Chunk
	var vec pgvector.Vector
	if err := row.Scan(&c.ID, &c.DocumentID, &c.Text, &c.PageNum, &c.ChunkIndex, &vec,
		&c.SemanticDensity, &c.ChunkType, &c.HasDefinitions, &c.HasExamples); err != nil {
		return model.Chunk{}, err
	}
	c.Embedding = vec.Slice()
	return c, nil
}

func (s *Store) scanScoredChunks(ctx context.Context, sql string, args ...any) ([]store.ScoredChunk, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ScoredChunk
	for rows.Next() {
		var c model.Chunk
		var vec pgvector.Vector
		var score float64
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Text, &c.PageNum, &c.ChunkIndex, &vec,
			&c.SemanticDensity, &c.ChunkType, &c.HasDefinitions, &c.HasExamples, &score); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		out = append(out, store.ScoredChunk{Chunk: c, Score: score})
	}
	return out, rows.Err()
}

// Export/Import use the same store.Export JSON shape memstore uses, but
// cover only entity nodes and RELATED_TO edges: documents, chunks and
// their HAS_CHUNK/NEXT_CHUNK/CONTAINS_ENTITY edges are not exported or
// imported.
func (s *Store) Export(ctx context.Context) (*store.Export, error) {
	entities, err := s.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	related, err := s.ListRelatedTo(ctx)
	if err != nil {
		return nil, err
	}

	var nodes []store.Node
	for _, e := range entities {
		e := e
		nodes = append(nodes, store.Node{Kind: "entity", Entity: &e})
	}
	var rels []store.Relationship
	for _, r := range related {
		rels = append(rels, store.Relationship{Kind: "RELATED_TO", From: r.A, To: r.B, Strength: r.Strength})
	}

	return &store.Export{
		Metadata:      store.NewExportMetadata("1", time.Now().UTC().Format(time.RFC3339)),
		Nodes:         nodes,
		Relationships: rels,
		Statistics:    store.Statistics{EntityCount: len(entities), RelationshipCount: len(rels)},
	}, nil
}

func (s *Store) Import(ctx context.Context, export *store.Export) error {
	for _, n := range export.Nodes {
		if n.Kind == "entity" && n.Entity != nil {
			if err := s.UpsertEntity(ctx, *n.Entity); err != nil {
				return err
			}
		}
	}
	for _, r := range export.Relationships {
		if r.Kind == "RELATED_TO" {
			if err := s.LinkRelatedTo(ctx, model.RelatedTo{A: r.From, B: r.To, Strength: r.Strength}); err != nil {
				return err
			}
		}
	}
	return nil
}
