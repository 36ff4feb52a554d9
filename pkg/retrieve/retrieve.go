// Package retrieve provides the keyword, vector, entity, and
// community-aware retrievers, plus the hybrid fan-out that fuses them.
package retrieve

import (
	"context"
	"sort"

	"github.com/jasonaskew/docugraph/pkg/embedding"
	"github.com/jasonaskew/docugraph/pkg/entityextract"
	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/planner"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// communityFloor is the score at or above which a first-pass entity
// result counts toward TopK; when fewer than TopK results reach it, the
// community retriever expands through bridge entities. Bridge-expanded
// results are not filtered by it.
const communityFloor = 0.3

// Retriever runs a single retrieval strategy against a plan and returns
// scored candidates, unranked beyond their own internal ordering.
type Retriever interface {
	Retrieve(ctx context.Context, p planner.Plan) ([]store.ScoredChunk, error)
}

// Keyword runs store.KeywordSearchChunks against the plan's extracted
// keywords.
type Keyword struct{ Store store.GraphStore }

func (k Keyword) Retrieve(ctx context.Context, p planner.Plan) ([]store.ScoredChunk, error) {
	return k.Store.KeywordSearchChunks(ctx, p.Keywords, p.Filter, p.TopK*2)
}

// Vector embeds the query and runs store.VectorSearchChunks over an
// expanded candidate pool (top 2*top_k, ahead of fusion/rerank).
type Vector struct {
	Store   store.GraphStore
	Encoder embedding.Encoder
}

func (v Vector) Retrieve(ctx context.Context, p planner.Plan) ([]store.ScoredChunk, error) {
	vecs, err := v.Encoder.Encode(ctx, []string{p.Query})
	if err != nil {
		return nil, err
	}
	return v.Store.VectorSearchChunks(ctx, vecs[0], p.Filter, p.TopK*2)
}

// Entity restricts extraction to PRODUCT/TERM surface types, on the
// premise that a query names a product or contract term rather than a
// person or amount, and scores chunks by confidence-summed entity overlap.
type Entity struct {
	Store     store.GraphStore
	Extractor *entityextract.Extractor
}

func (e Entity) Retrieve(ctx context.Context, p planner.Plan) ([]store.ScoredChunk, error) {
	mentions := e.Extractor.Extract(p.Query, model.EntityProduct, model.EntityTerm)
	if len(mentions) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(mentions))
	for _, m := range mentions {
		keys = append(keys, string(m.Type)+"\x00"+m.Normalized)
	}
	return e.Store.EntityLookup(ctx, keys, p.Filter, p.TopK*2)
}

// Community runs the entity retriever first to find candidate entities,
// looks up their communities, and if fewer than top_k chunks clear the
// community floor, expands through bridge entities (entities whose
// ConnectedCommunities span more than one cluster) to widen the pool.
type Community struct {
	Store     store.GraphStore
	Extractor *entityextract.Extractor
}

func (c Community) Retrieve(ctx context.Context, p planner.Plan) ([]store.ScoredChunk, error) {
	mentions := c.Extractor.Extract(p.Query, model.EntityProduct, model.EntityTerm)
	if len(mentions) == 0 {
		return nil, nil
	}

	seedKeys := make([]string, 0, len(mentions))
	communityIDs := make(map[string]struct{})
	for _, m := range mentions {
		key := string(m.Type) + "\x00" + m.Normalized
		seedKeys = append(seedKeys, key)
		if e, ok, err := c.Store.GetEntity(ctx, key); err == nil && ok && e.CommunityID != "" {
			communityIDs[e.CommunityID] = struct{}{}
		}
	}

	results, err := c.Store.EntityLookup(ctx, seedKeys, p.Filter, p.TopK*2)
	if err != nil {
		return nil, err
	}
	above := 0
	for _, r := range results {
		if r.Score >= communityFloor {
			above++
		}
	}
	if above >= p.TopK || len(communityIDs) == 0 {
		return results, nil
	}

	entities, err := c.Store.ListEntities(ctx)
	if err != nil {
		return results, nil
	}
	var bridgeKeys []string
	for _, e := range entities {
		if !e.IsBridge {
			continue
		}
		if _, ok := communityIDs[e.CommunityID]; ok {
			bridgeKeys = append(bridgeKeys, e.Key())
		}
	}
	if len(bridgeKeys) == 0 {
		return results, nil
	}
	expanded, err := c.Store.EntityLookup(ctx, bridgeKeys, p.Filter, p.TopK*2)
	if err != nil {
		return results, nil
	}
	return mergeScored(results, expanded), nil
}

// Hybrid fans out to keyword, vector, and entity retrievers and fuses
// their scores with fixed pre-rerank weights: vector 0.5, entity 0.3,
// keyword 0.2.
type Hybrid struct {
	Keyword Retriever
	Vector  Retriever
	Entity  Retriever
}

const (
	hybridVectorWeight  = 0.5
	hybridEntityWeight  = 0.3
	hybridKeywordWeight = 0.2
)

func (h Hybrid) Retrieve(ctx context.Context, p planner.Plan) ([]store.ScoredChunk, error) {
	fused := make(map[string]*store.ScoredChunk)

	apply := func(results []store.ScoredChunk, weight float64) {
		for _, r := range results {
			if existing, ok := fused[r.Chunk.ID]; ok {
				existing.Score += r.Score * weight
				continue
			}
			fused[r.Chunk.ID] = &store.ScoredChunk{Chunk: r.Chunk, Score: r.Score * weight}
		}
	}

	if h.Vector != nil && p.UseVector {
		vecResults, err := h.Vector.Retrieve(ctx, p)
		if err != nil {
			return nil, err
		}
		apply(vecResults, hybridVectorWeight)
	}
	if h.Entity != nil {
		entResults, err := h.Entity.Retrieve(ctx, p)
		if err != nil {
			return nil, err
		}
		apply(entResults, hybridEntityWeight)
	}
	if h.Keyword != nil {
		kwResults, err := h.Keyword.Retrieve(ctx, p)
		if err != nil {
			return nil, err
		}
		apply(kwResults, hybridKeywordWeight)
	}

	out := make([]store.ScoredChunk, 0, len(fused))
	for _, v := range fused {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if len(out) > p.TopK*2 {
		out = out[:p.TopK*2]
	}
	return out, nil
}

func mergeScored(a, b []store.ScoredChunk) []store.ScoredChunk {
	byID := make(map[string]store.ScoredChunk, len(a)+len(b))
	for _, c := range a {
		byID[c.Chunk.ID] = c
	}
	for _, c := range b {
		if existing, ok := byID[c.Chunk.ID]; !ok || c.Score > existing.Score {
			byID[c.Chunk.ID] = c
		}
	}
	out := make([]store.ScoredChunk, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	return out
}

// ForStrategy selects the retriever(s) named by a plan's strategy,
// wrapping them into a single Retriever the engine can call uniformly.
func ForStrategy(p planner.Plan, gs store.GraphStore, enc embedding.Encoder, ex *entityextract.Extractor) Retriever {
	kw := Keyword{Store: gs}
	vec := Vector{Store: gs, Encoder: enc}
	ent := Entity{Store: gs, Extractor: ex}
	switch p.Strategy {
	case "keyword":
		return kw
	case "vector":
		return vec
	case "entity":
		return ent
	case "community":
		return Community{Store: gs, Extractor: ex}
	default:
		return Hybrid{Keyword: kw, Vector: vec, Entity: ent}
	}
}
