package neo4jstore

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (model.Document, bool, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.Run(ctx, `MATCH (d:Document {id: $id}) RETURN d`, map[string]any{"id": documentID})
	if err != nil {
		return model.Document{}, false, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return model.Document{}, false, nil
	}
	node, _ := record.Get("d")
	return documentFromNode(node.(neo4j.Node)), true, nil
}

func documentFromNode(n neo4j.Node) model.Document {
	p := n.Props
	d := model.Document{
		ID:         asString(p["id"]),
		Filename:   asString(p["filename"]),
		TotalPages: int(asInt(p["total_pages"])),
		Category:   asString(p["category"]),
		Division:   asString(p["division"]),
		ChunkCount: int(asInt(p["chunk_count"])),
		Status:     model.DocumentStatus(asString(p["status"])),
	}
	if unix, ok := p["ingested_at"].(int64); ok {
		d.IngestedAt = time.Unix(unix, 0).UTC()
	}
	return d
}

func (s *Store) GetEntity(ctx context.Context, key string) (model.Entity, bool, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.Run(ctx, `MATCH (e:Entity {key: $key}) RETURN e`, map[string]any{"key": key})
	if err != nil {
		return model.Entity{}, false, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return model.Entity{}, false, nil
	}
	node, _ := record.Get("e")
	return entityFromNode(node.(neo4j.Node)), true, nil
}

func entityFromNode(n neo4j.Node) model.Entity {
	p := n.Props
	e := model.Entity{
		ID:                    asString(p["key"]),
		Text:                  asString(p["text"]),
		Normalized:            asString(p["normalized"]),
		Type:                  model.EntityType(asString(p["type"])),
		Occurrences:           int(asInt(p["occurrences"])),
		CommunityID:           asString(p["community_id"]),
		DegreeCentrality:      asFloat(p["degree_centrality"]),
		BetweennessCentrality: asFloat(p["betweenness_centrality"]),
		ConnectedCommunities:  int(asInt(p["connected_communities"])),
	}
	if b, ok := p["is_bridge"].(bool); ok {
		e.IsBridge = b
	}
	if unix, ok := p["first_seen"].(int64); ok {
		e.FirstSeen = time.Unix(unix, 0).UTC()
	}
	return e
}

func (s *Store) ListEntities(ctx context.Context) ([]model.Entity, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.Run(ctx, `MATCH (e:Entity) RETURN e ORDER BY e.key`, nil)
	if err != nil {
		return nil, err
	}
	var out []model.Entity
	for result.Next(ctx) {
		node, _ := result.Record().Get("e")
		out = append(out, entityFromNode(node.(neo4j.Node)))
	}
	return out, result.Err()
}

func (s *Store) ListRelatedTo(ctx context.Context) ([]model.RelatedTo, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.Run(ctx, `MATCH (a:Entity)-[r:RELATED_TO]-(b:Entity) WHERE a.key < b.key RETURN a.key AS a, b.key AS b, r.strength AS strength`, nil)
	if err != nil {
		return nil, err
	}
	var out []model.RelatedTo
	for result.Next(ctx) {
		rec := result.Record()
		a, _ := rec.Get("a")
		b, _ := rec.Get("b")
		strength, _ := rec.Get("strength")
		out = append(out, model.RelatedTo{A: a.(string), B: b.(string), Strength: int(asInt(strength))})
	}
	return out, result.Err()
}

func filterClause(filter store.Filter) (string, map[string]any) {
	var clauses []string
	params := map[string]any{}
	if filter.Division != "" {
		clauses = append(clauses, "d.division = $division")
		params["division"] = filter.Division
	}
	if filter.Category != "" {
		clauses = append(clauses, "d.category = $category")
		params["category"] = filter.Category
	}
	if len(clauses) == 0 {
		return "", params
	}
	return " AND " + strings.Join(clauses, " AND "), params
}

func (s *Store) KeywordSearchChunks(ctx context.Context, keywords []string, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	session := s.readSession(ctx)
	defer session.Close(ctx)
	clause, params := filterClause(filter)
	params["keywords"] = keywords
	params["limit"] = int64(limit)
	result, err := session.Run(ctx, `
		MATCH (d:Document)-[:HAS_CHUNK]->(c:Chunk)
		WHERE any(k IN $keywords WHERE toLower(c.text) CONTAINS toLower(k))`+clause+`
		WITH c, size([k IN $keywords WHERE toLower(c.text) CONTAINS toLower(k)]) AS matched, size($keywords) AS total
		RETURN c, toFloat(matched) / toFloat(total) AS score
		ORDER BY score DESC
		LIMIT $limit
	`, params)
	if err != nil {
		return nil, err
	}
	return scanScored(ctx, result)
}

func (s *Store) VectorSearchChunks(ctx context.Context, query []float32, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)
	clause, params := filterClause(filter)
	qvec := make([]float64, len(query))
	for i, v := range query {
		qvec[i] = float64(v)
	}
	params["query"] = qvec
	params["limit"] = int64(limit)
	result, err := session.Run(ctx, `
		MATCH (d:Document)-[:HAS_CHUNK]->(c:Chunk)
		WHERE c.embedding IS NOT NULL`+clause+`
		RETURN c, c.embedding AS embedding
	`, params)
	if err != nil {
		return nil, err
	}
	var out []store.ScoredChunk
	for result.Next(ctx) {
		rec := result.Record()
		node, _ := rec.Get("c")
		embeddingAny, _ := rec.Get("embedding")
		score := cosine(qvec, toFloat64Slice(embeddingAny))
		out = append(out, store.ScoredChunk{Chunk: chunkFromNode(node.(neo4j.Node)), Score: score})
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	sortScoredDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) EntityLookup(ctx context.Context, entityKeys []string, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	if len(entityKeys) == 0 {
		return nil, nil
	}
	session := s.readSession(ctx)
	defer session.Close(ctx)
	clause, params := filterClause(filter)
	params["keys"] = entityKeys
	params["limit"] = int64(limit)
	result, err := session.Run(ctx, `
		MATCH (d:Document)-[:HAS_CHUNK]->(c:Chunk)-[r:CONTAINS_ENTITY]->(e:Entity)
		WHERE e.key IN $keys`+clause+`
		WITH c, sum(r.confidence) AS total
		RETURN c, total
		ORDER BY total DESC
		LIMIT $limit
	`, params)
	if err != nil {
		return nil, err
	}
	var raw []store.ScoredChunk
	for result.Next(ctx) {
		rec := result.Record()
		node, _ := rec.Get("c")
		total, _ := rec.Get("total")
		raw = append(raw, store.ScoredChunk{Chunk: chunkFromNode(node.(neo4j.Node)), Score: asFloat(total)})
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return normalizeByMax(raw), nil
}

func (s *Store) ExpandContext(ctx context.Context, chunkID string, hops int) ([]model.Chunk, error) {
	if hops < 1 {
		hops = 1
	}
	if hops > 2 {
		hops = 2
	}
	session := s.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.Run(ctx, `
		MATCH (start:Chunk {id: $id})
		MATCH p = (start)-[:NEXT_CHUNK|CONTAINS_ENTITY*1..`+hopsLiteral(hops)+`]-(c:Chunk)
		RETURN DISTINCT c
	`, map[string]any{"id": chunkID})
	if err != nil {
		return nil, err
	}
	var out []model.Chunk
	for result.Next(ctx) {
		node, _ := result.Record().Get("c")
		out = append(out, chunkFromNode(node.(neo4j.Node)))
	}
	return out, result.Err()
}

func hopsLiteral(hops int) string {
	if hops <= 1 {
		return "2"
	}
	return "4"
}

func (s *Store) SchemaSummary(ctx context.Context) (store.SchemaSummary, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.Run(ctx, `
		MATCH (d:Document) WITH count(d) AS documents
		MATCH (c:Chunk) WITH documents, count(c) AS chunks
		MATCH (e:Entity) WITH documents, chunks, count(e) AS entities
		RETURN documents, chunks, entities
	`, nil)
	if err != nil {
		return store.SchemaSummary{}, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return store.SchemaSummary{}, nil
	}
	documents, _ := record.Get("documents")
	chunks, _ := record.Get("chunks")
	entities, _ := record.Get("entities")

	typeResult, err := session.Run(ctx, `MATCH (e:Entity) RETURN e.type AS type, count(e) AS n`, nil)
	if err != nil {
		return store.SchemaSummary{}, err
	}
	entityTypes := make(map[model.EntityType]int)
	for typeResult.Next(ctx) {
		rec := typeResult.Record()
		t, _ := rec.Get("type")
		n, _ := rec.Get("n")
		entityTypes[model.EntityType(asString(t))] = int(asInt(n))
	}

	communityResult, err := session.Run(ctx, `MATCH (e:Entity) WHERE e.community_id IS NOT NULL AND e.community_id <> '' RETURN count(DISTINCT e.community_id) AS n`, nil)
	if err != nil {
		return store.SchemaSummary{}, err
	}
	communityCount := 0
	if rec, err := communityResult.Single(ctx); err == nil {
		n, _ := rec.Get("n")
		communityCount = int(asInt(n))
	}

	return store.SchemaSummary{
		DocumentCount: int(asInt(documents)), ChunkCount: int(asInt(chunks)), EntityCount: int(asInt(entities)),
		CommunityCount: communityCount, EntityTypes: entityTypes,
	}, nil
}

func chunkFromNode(n neo4j.Node) model.Chunk {
	p := n.Props
	return model.Chunk{
		ID: asString(p["id"]), DocumentID: asString(p["document_id"]), Text: asString(p["text"]),
		PageNum: int(asInt(p["page_num"])), ChunkIndex: int(asInt(p["chunk_index"])),
		Embedding: float32Slice(toFloat64Slice(p["embedding"])), SemanticDensity: asFloat(p["semantic_density"]),
		ChunkType: model.ChunkType(asString(p["chunk_type"])), HasDefinitions: asBool(p["has_definitions"]),
		HasExamples: asBool(p["has_examples"]),
	}
}

func scanScored(ctx context.Context, result neo4j.ResultWithContext) ([]store.ScoredChunk, error) {
	var out []store.ScoredChunk
	for result.Next(ctx) {
		rec := result.Record()
		node, _ := rec.Get("c")
		score, _ := rec.Get("score")
		out = append(out, store.ScoredChunk{Chunk: chunkFromNode(node.(neo4j.Node)), Score: asFloat(score)})
	}
	return out, result.Err()
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func normalizeByMax(raw []store.ScoredChunk) []store.ScoredChunk {
	max := 0.0
	for _, r := range raw {
		if r.Score > max {
			max = r.Score
		}
	}
	if max == 0 {
		return raw
	}
	out := make([]store.ScoredChunk, len(raw))
	for i, r := range raw {
		out[i] = store.ScoredChunk{Chunk: r.Chunk, Score: r.Score / max}
	}
	sortScoredDesc(out)
	return out
}

func sortScoredDesc(chunks []store.ScoredChunk) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j].Score > chunks[j-1].Score; j-- {
			chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
		}
	}
}

func toFloat64Slice(v any) []float64 {
	switch vv := v.(type) {
	case []float64:
		return vv
	case []any:
		out := make([]float64, len(vv))
		for i, e := range vv {
			out[i] = asFloat(e)
		}
		return out
	default:
		return nil
	}
}

func float32Slice(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
