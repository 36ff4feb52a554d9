// Package community builds entity co-occurrence edges, runs Louvain
// clustering over them, and derives per-entity centrality/bridge metrics.
package community

import (
	"context"
	"sort"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// Builder runs the periodic or explicitly-triggered community rebuild.
type Builder struct {
	store      store.GraphStore
	minStrength int
	resolution  float64
}

func New(gs store.GraphStore, minStrength int, resolution float64) *Builder {
	if minStrength <= 0 {
		minStrength = 2
	}
	if resolution <= 0 {
		resolution = 1.0
	}
	return &Builder{store: gs, minStrength: minStrength, resolution: resolution}
}

// RebuildExclusive acquires the rebuild lock before calling Rebuild, so
// concurrent triggers (dwell timer firing alongside an explicit API
// trigger) never run two rebuilds over the same entities at once.
func (b *Builder) RebuildExclusive(ctx context.Context, lock Lock, wait bool, chunkEntities map[string][]string) error {
	release, err := lock.Acquire(ctx, wait)
	if err != nil {
		return err
	}
	defer release()
	return b.Rebuild(ctx, chunkEntities)
}

// Rebuild upserts co-occurrence edges from chunkEntities (chunk_id ->
// entity_keys seen in that chunk, gathered by the caller from the store's
// CONTAINS_ENTITY edges), then runs clustering and writes updated entity
// metrics back. Call this after ingestion quiescence or on explicit
// trigger.
func (b *Builder) Rebuild(ctx context.Context, chunkEntities map[string][]string) error {
	strengths := cooccurrenceStrengths(chunkEntities)

	adjacency := make(map[string]map[string]int)
	for pair, strength := range strengths {
		if strength < b.minStrength {
			continue
		}
		a, c := splitPair(pair)
		if err := b.store.LinkRelatedTo(ctx, model.RelatedTo{A: a, B: c, Strength: strength}); err != nil {
			return err
		}
		addEdge(adjacency, a, c, strength)
		addEdge(adjacency, c, a, strength)
	}

	partition := louvain(adjacency, b.resolution)
	metrics := computeMetrics(adjacency, partition)

	entities, err := b.store.ListEntities(ctx)
	if err != nil {
		return err
	}
	for _, e := range entities {
		m, ok := metrics[e.Key()]
		if !ok {
			continue
		}
		// UpdateEntityMetrics, not UpsertEntity: e.Occurrences already
		// carries this entity's full persisted count, and UpsertEntity
		// treats Occurrences as an ingestion delta to add on top of it.
		if err := b.store.UpdateEntityMetrics(ctx, e.Key(), model.EntityMetrics{
			CommunityID: m.communityID, DegreeCentrality: m.degreeCentrality,
			BetweennessCentrality: m.betweenness, IsBridge: m.isBridge,
			ConnectedCommunities: m.connectedCommunities,
		}); err != nil {
			return err
		}
	}
	return nil
}

// splitPair inverts model.UndirectedKey for two entity keys. Each entity
// key is type + "\x00" + normalized, so the separator between the two
// keys is the second NUL byte of the pair.
func splitPair(pair string) (string, string) {
	seen := 0
	for i := 0; i < len(pair); i++ {
		if pair[i] == 0 {
			seen++
			if seen == 2 {
				return pair[:i], pair[i+1:]
			}
		}
	}
	return pair, ""
}

// cooccurrenceStrengths counts, for every pair of entities, the number of
// distinct chunks containing both.
func cooccurrenceStrengths(chunkEntities map[string][]string) map[string]int {
	strengths := make(map[string]int)
	for _, keys := range chunkEntities {
		uniq := dedupe(keys)
		sort.Strings(uniq)
		for i := 0; i < len(uniq); i++ {
			for j := i + 1; j < len(uniq); j++ {
				pair := model.UndirectedKey(uniq[i], uniq[j])
				strengths[pair]++
			}
		}
	}
	return strengths
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func addEdge(adjacency map[string]map[string]int, a, b string, weight int) {
	if adjacency[a] == nil {
		adjacency[a] = make(map[string]int)
	}
	adjacency[a][b] += weight
}
