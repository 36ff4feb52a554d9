package engine

import (
	"sort"
	"sync"
)

// TraceEventKind distinguishes what a TraceEvent is reporting.
type TraceEventKind string

const (
	TraceEventConsideredChunkIDs TraceEventKind = "considered_chunk_ids"
	TraceEventUsedChunkIDs       TraceEventKind = "used_chunk_ids"
)

// TraceEvent is an extensible event envelope for query tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind     TraceEventKind
	ChunkIDs []string
}

// Tracer is a sink for query tracing events.
type Tracer interface {
	Record(event TraceEvent)
}

func recordConsideredChunkIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventConsideredChunkIDs, ChunkIDs: ids})
}

func recordUsedChunkIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventUsedChunkIDs, ChunkIDs: ids})
}

// QueryTrace collects which chunks a single Search call considered (every
// candidate a retriever surfaced) versus actually used (the chunks that
// made it into the final citation set), so a caller can tell how much of
// the candidate pool a query's answer actually drew from.
//
// QueryTrace is safe for concurrent use, matching Tracer's general
// contract, even though a single Search call records to it sequentially.
type QueryTrace struct {
	mu sync.Mutex

	considered map[string]struct{}
	used       map[string]struct{}
}

// QueryTraceSnapshot is a point-in-time, sorted read of a QueryTrace.
type QueryTraceSnapshot struct {
	ConsideredChunkIDs []string
	UsedChunkIDs       []string
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		considered: make(map[string]struct{}),
		used:       make(map[string]struct{}),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventConsideredChunkIDs:
		for _, id := range event.ChunkIDs {
			if id == "" {
				continue
			}
			t.considered[id] = struct{}{}
		}
	case TraceEventUsedChunkIDs:
		for _, id := range event.ChunkIDs {
			if id == "" {
				continue
			}
			t.used[id] = struct{}{}
		}
	}
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s := QueryTraceSnapshot{
		ConsideredChunkIDs: make([]string, 0, len(t.considered)),
		UsedChunkIDs:       make([]string, 0, len(t.used)),
	}
	for id := range t.considered {
		s.ConsideredChunkIDs = append(s.ConsideredChunkIDs, id)
	}
	for id := range t.used {
		s.UsedChunkIDs = append(s.UsedChunkIDs, id)
	}
	sort.Strings(s.ConsideredChunkIDs)
	sort.Strings(s.UsedChunkIDs)
	return s
}
