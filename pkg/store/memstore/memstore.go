// Package memstore is the default in-memory GraphStore implementation.
// It exists so the engine runs with zero external dependencies out of the
// box; the durable backends pgxstore and neo4jstore implement the same
// interface for production deployments.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

type state struct {
	documents map[string]model.Document
	chunks    map[string]model.Chunk
	entities  map[string]model.Entity

	hasChunk      map[string][]string
	nextChunk     map[string]string
	containsEntity map[string][]model.ContainsEntity
	relatedTo     map[string]model.RelatedTo
}

func newState() *state {
	return &state{
		documents:      make(map[string]model.Document),
		chunks:         make(map[string]model.Chunk),
		entities:       make(map[string]model.Entity),
		hasChunk:       make(map[string][]string),
		nextChunk:      make(map[string]string),
		containsEntity: make(map[string][]model.ContainsEntity),
		relatedTo:      make(map[string]model.RelatedTo),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.documents {
		c.documents[k] = v
	}
	for k, v := range s.chunks {
		c.chunks[k] = v
	}
	for k, v := range s.entities {
		c.entities[k] = v
	}
	for k, v := range s.hasChunk {
		c.hasChunk[k] = append([]string(nil), v...)
	}
	for k, v := range s.nextChunk {
		c.nextChunk[k] = v
	}
	for k, v := range s.containsEntity {
		c.containsEntity[k] = append([]model.ContainsEntity(nil), v...)
	}
	for k, v := range s.relatedTo {
		c.relatedTo[k] = v
	}
	return c
}

// Store is an in-memory GraphStore. The zero value is not usable; use New.
type Store struct {
	mu sync.RWMutex
	s  *state
}

func New() *Store {
	return &Store{s: newState()}
}

func (st *Store) UpsertDocument(_ context.Context, doc model.Document) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.documents[doc.ID] = doc
	return nil
}

func (st *Store) UpsertChunk(_ context.Context, chunk model.Chunk) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.chunks[chunk.ID] = chunk
	return nil
}

func (st *Store) UpsertEntity(_ context.Context, entity model.Entity) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	key := entity.Key()
	if existing, ok := st.s.entities[key]; ok {
		entity.Occurrences += existing.Occurrences
		if existing.FirstSeen.Before(entity.FirstSeen) && !existing.FirstSeen.IsZero() {
			entity.FirstSeen = existing.FirstSeen
		}
	}
	if entity.Occurrences == 0 {
		entity.Occurrences = 1
	}
	st.s.entities[key] = entity
	return nil
}

// UpdateEntityMetrics writes back the community/centrality fields for an
// already-persisted entity without touching Occurrences, unlike
// UpsertEntity's additive accumulation. A rebuild over the full entity
// set must use this, not UpsertEntity, or occurrences would double on
// every rebuild.
func (st *Store) UpdateEntityMetrics(_ context.Context, key string, metrics model.EntityMetrics) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	entity, ok := st.s.entities[key]
	if !ok {
		return nil
	}
	entity.CommunityID = metrics.CommunityID
	entity.DegreeCentrality = metrics.DegreeCentrality
	entity.BetweennessCentrality = metrics.BetweennessCentrality
	entity.IsBridge = metrics.IsBridge
	entity.ConnectedCommunities = metrics.ConnectedCommunities
	st.s.entities[key] = entity
	return nil
}

func (st *Store) LinkHasChunk(_ context.Context, documentID, chunkID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.hasChunk[documentID] = append(st.s.hasChunk[documentID], chunkID)
	return nil
}

func (st *Store) LinkNextChunk(_ context.Context, fromChunkID, toChunkID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.nextChunk[fromChunkID] = toChunkID
	return nil
}

func (st *Store) LinkContainsEntity(_ context.Context, edge model.ContainsEntity) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.containsEntity[edge.ChunkID] = append(st.s.containsEntity[edge.ChunkID], edge)
	return nil
}

func (st *Store) LinkRelatedTo(_ context.Context, edge model.RelatedTo) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	key := model.UndirectedKey(edge.A, edge.B)
	st.s.relatedTo[key] = edge
	return nil
}

// DeleteDocumentCascade removes a document and its chunks, decrementing
// the occurrence count of every entity those chunks' CONTAINS_ENTITY
// edges reference and pruning any entity that reaches zero, along with
// the RELATED_TO and CONTAINS_ENTITY edges that would otherwise dangle
// off a pruned entity.
func (st *Store) DeleteDocumentCascade(_ context.Context, documentID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	chunkIDs := st.s.hasChunk[documentID]
	delete(st.s.hasChunk, documentID)
	delete(st.s.documents, documentID)

	pruned := make(map[string]struct{})
	for _, cid := range chunkIDs {
		delete(st.s.chunks, cid)
		delete(st.s.nextChunk, cid)
		for _, edge := range st.s.containsEntity[cid] {
			entity, ok := st.s.entities[edge.EntityKey]
			if !ok {
				continue
			}
			entity.Occurrences--
			if entity.Occurrences <= 0 {
				delete(st.s.entities, edge.EntityKey)
				pruned[edge.EntityKey] = struct{}{}
			} else {
				st.s.entities[edge.EntityKey] = entity
			}
		}
		delete(st.s.containsEntity, cid)
	}

	if len(pruned) == 0 {
		return nil
	}
	for pairKey, rel := range st.s.relatedTo {
		if _, ok := pruned[rel.A]; ok {
			delete(st.s.relatedTo, pairKey)
			continue
		}
		if _, ok := pruned[rel.B]; ok {
			delete(st.s.relatedTo, pairKey)
		}
	}
	for cid, edges := range st.s.containsEntity {
		kept := edges[:0]
		for _, e := range edges {
			if _, ok := pruned[e.EntityKey]; !ok {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(st.s.containsEntity, cid)
		} else {
			st.s.containsEntity[cid] = kept
		}
	}
	return nil
}

// WithTransaction runs fn against a cloned snapshot of the store's state;
// the clone only replaces the live state if fn succeeds, so a failed
// document write leaves no residue behind.
func (st *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, txStore store.GraphStore) error) error {
	st.mu.Lock()
	snapshot := st.s.clone()
	st.mu.Unlock()

	tx := &Store{s: snapshot}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	st.mu.Lock()
	st.s = tx.s
	st.mu.Unlock()
	return nil
}

func (st *Store) GetDocument(_ context.Context, documentID string) (model.Document, bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	d, ok := st.s.documents[documentID]
	return d, ok, nil
}

func (st *Store) GetEntity(_ context.Context, key string) (model.Entity, bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	e, ok := st.s.entities[key]
	return e, ok, nil
}

func (st *Store) ListEntities(_ context.Context) ([]model.Entity, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]model.Entity, 0, len(st.s.entities))
	for _, e := range st.s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (st *Store) ListRelatedTo(_ context.Context) ([]model.RelatedTo, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]model.RelatedTo, 0, len(st.s.relatedTo))
	for _, r := range st.s.relatedTo {
		out = append(out, r)
	}
	return out, nil
}

func (st *Store) matchesFilter(chunk model.Chunk, filter store.Filter) bool {
	if filter.IsZero() {
		return true
	}
	doc, ok := st.s.documents[chunk.DocumentID]
	if !ok {
		return false
	}
	if filter.Division != "" && doc.Division != filter.Division {
		return false
	}
	if filter.Category != "" && doc.Category != filter.Category {
		return false
	}
	return true
}

func (st *Store) KeywordSearchChunks(_ context.Context, keywords []string, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if len(keywords) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	var results []store.ScoredChunk
	for _, chunk := range st.s.chunks {
		if !st.matchesFilter(chunk, filter) {
			continue
		}
		text := strings.ToLower(chunk.Text)
		matched := 0
		for _, kw := range lowered {
			if strings.Contains(text, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(lowered))
		if strings.Contains(text, strings.Join(lowered, " ")) {
			score += 0.1
		}
		if score > 1 {
			score = 1
		}
		results = append(results, store.ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	return truncate(results, limit), nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim
}

func (st *Store) VectorSearchChunks(_ context.Context, query []float32, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var results []store.ScoredChunk
	for _, chunk := range st.s.chunks {
		if !st.matchesFilter(chunk, filter) {
			continue
		}
		if len(chunk.Embedding) == 0 {
			continue
		}
		results = append(results, store.ScoredChunk{Chunk: chunk, Score: cosine(query, chunk.Embedding)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	return truncate(results, limit), nil
}

func (st *Store) EntityLookup(_ context.Context, entityKeys []string, filter store.Filter, limit int) ([]store.ScoredChunk, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	wanted := make(map[string]struct{}, len(entityKeys))
	for _, k := range entityKeys {
		wanted[k] = struct{}{}
	}

	scores := make(map[string]float64)
	for chunkID, edges := range st.s.containsEntity {
		for _, edge := range edges {
			if _, ok := wanted[edge.EntityKey]; !ok {
				continue
			}
			scores[chunkID] += edge.Confidence
		}
	}

	var maxScore float64
	for _, v := range scores {
		if v > maxScore {
			maxScore = v
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	var results []store.ScoredChunk
	for chunkID, total := range scores {
		chunk, ok := st.s.chunks[chunkID]
		if !ok || !st.matchesFilter(chunk, filter) {
			continue
		}
		results = append(results, store.ScoredChunk{Chunk: chunk, Score: total / maxScore})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	return truncate(results, limit), nil
}

func (st *Store) ExpandContext(_ context.Context, chunkID string, hops int) ([]model.Chunk, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if hops < 1 {
		hops = 1
	}
	if hops > 2 {
		hops = 2
	}

	seen := map[string]struct{}{chunkID: {}}
	frontier := []string{chunkID}
	for h := 0; h < hops; h++ {
		var next []string
		for _, id := range frontier {
			if nextID, ok := st.s.nextChunk[id]; ok {
				if _, ok := seen[nextID]; !ok {
					seen[nextID] = struct{}{}
					next = append(next, nextID)
				}
			}
			for _, entity := range st.s.containsEntity[id] {
				for otherChunkID, edges := range st.s.containsEntity {
					if otherChunkID == id {
						continue
					}
					for _, e := range edges {
						if e.EntityKey == entity.EntityKey {
							if _, ok := seen[otherChunkID]; !ok {
								seen[otherChunkID] = struct{}{}
								next = append(next, otherChunkID)
							}
						}
					}
				}
			}
		}
		frontier = next
	}

	out := make([]model.Chunk, 0, len(seen))
	for id := range seen {
		if c, ok := st.s.chunks[id]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (st *Store) SchemaSummary(_ context.Context) (store.SchemaSummary, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	communities := make(map[string]struct{})
	entityTypes := make(map[model.EntityType]int)
	for _, e := range st.s.entities {
		entityTypes[e.Type]++
		if e.CommunityID != "" {
			communities[e.CommunityID] = struct{}{}
		}
	}

	return store.SchemaSummary{
		DocumentCount:  len(st.s.documents),
		ChunkCount:     len(st.s.chunks),
		EntityCount:    len(st.s.entities),
		CommunityCount: len(communities),
		EntityTypes:    entityTypes,
	}, nil
}

func truncate(results []store.ScoredChunk, limit int) []store.ScoredChunk {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func (st *Store) Export(_ context.Context) (*store.Export, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var nodes []store.Node
	for _, d := range st.s.documents {
		d := d
		nodes = append(nodes, store.Node{Kind: "document", Document: &d})
	}
	for _, c := range st.s.chunks {
		nodes = append(nodes, store.Node{Kind: "chunk", Chunk: &store.ExportChunk{
			ID: c.ID, DocumentID: c.DocumentID, Text: c.Text, PageNum: c.PageNum,
			ChunkIndex: c.ChunkIndex, Embedding: store.NewVector(c.Embedding),
			SemanticDensity: c.SemanticDensity, ChunkType: string(c.ChunkType),
			HasDefinitions: c.HasDefinitions, HasExamples: c.HasExamples,
		}})
	}
	for _, e := range st.s.entities {
		e := e
		nodes = append(nodes, store.Node{Kind: "entity", Entity: &e})
	}

	var rels []store.Relationship
	for docID, chunkIDs := range st.s.hasChunk {
		for _, cid := range chunkIDs {
			rels = append(rels, store.Relationship{Kind: "HAS_CHUNK", From: docID, To: cid})
		}
	}
	for from, to := range st.s.nextChunk {
		rels = append(rels, store.Relationship{Kind: "NEXT_CHUNK", From: from, To: to})
	}
	for _, edges := range st.s.containsEntity {
		for _, e := range edges {
			rels = append(rels, store.Relationship{Kind: "CONTAINS_ENTITY", From: e.ChunkID, To: e.EntityKey, Confidence: e.Confidence})
		}
	}
	for _, r := range st.s.relatedTo {
		rels = append(rels, store.Relationship{Kind: "RELATED_TO", From: r.A, To: r.B, Strength: r.Strength})
	}

	return &store.Export{
		Metadata: store.NewExportMetadata("1", time.Now().UTC().Format(time.RFC3339)),
		Nodes:    nodes,
		Relationships: rels,
		Statistics: store.Statistics{
			DocumentCount: len(st.s.documents), ChunkCount: len(st.s.chunks),
			EntityCount: len(st.s.entities), RelationshipCount: len(rels),
		},
	}, nil
}

func (st *Store) Import(_ context.Context, export *store.Export) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := newState()
	for _, n := range export.Nodes {
		switch n.Kind {
		case "document":
			if n.Document != nil {
				s.documents[n.Document.ID] = *n.Document
			}
		case "chunk":
			if n.Chunk != nil {
				s.chunks[n.Chunk.ID] = model.Chunk{
					ID: n.Chunk.ID, DocumentID: n.Chunk.DocumentID, Text: n.Chunk.Text,
					PageNum: n.Chunk.PageNum, ChunkIndex: n.Chunk.ChunkIndex,
					Embedding: n.Chunk.Embedding.Values, SemanticDensity: n.Chunk.SemanticDensity,
					ChunkType: model.ChunkType(n.Chunk.ChunkType), HasDefinitions: n.Chunk.HasDefinitions,
					HasExamples: n.Chunk.HasExamples,
				}
			}
		case "entity":
			if n.Entity != nil {
				s.entities[n.Entity.Key()] = *n.Entity
			}
		}
	}
	for _, r := range export.Relationships {
		switch r.Kind {
		case "HAS_CHUNK":
			s.hasChunk[r.From] = append(s.hasChunk[r.From], r.To)
		case "NEXT_CHUNK":
			s.nextChunk[r.From] = r.To
		case "CONTAINS_ENTITY":
			s.containsEntity[r.From] = append(s.containsEntity[r.From], model.ContainsEntity{ChunkID: r.From, EntityKey: r.To, Confidence: r.Confidence})
		case "RELATED_TO":
			s.relatedTo[model.UndirectedKey(r.From, r.To)] = model.RelatedTo{A: r.From, B: r.To, Strength: r.Strength}
		default:
			return fmt.Errorf("memstore: import: unknown relationship kind %q", r.Kind)
		}
	}

	st.s = s
	return nil
}

var _ store.GraphStore = (*Store)(nil)
