// Package model holds the property graph's node and edge types: documents,
// chunks, entities, communities, and the relationships between them.
package model

import "time"

// DocumentStatus tracks where a Document sits in the ingestion lifecycle.
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentIngested  DocumentStatus = "ingested"
	DocumentValidated DocumentStatus = "validated"
	DocumentFailed    DocumentStatus = "failed"
)

// Document is a single ingested PDF.
type Document struct {
	ID         string
	Filename   string
	TotalPages int
	Category   string
	Division   string
	ChunkCount int
	Status     DocumentStatus
	IngestedAt time.Time
}

// ChunkType classifies the semantic role of a chunk's text.
type ChunkType string

const (
	ChunkContent    ChunkType = "content"
	ChunkDefinition ChunkType = "definition"
	ChunkExample    ChunkType = "example"
	ChunkTable      ChunkType = "table"
)

// Chunk is a bounded span of document text with its embedding and metadata.
type Chunk struct {
	ID              string
	DocumentID      string
	Text            string
	PageNum         int
	ChunkIndex      int
	Embedding       []float32
	SemanticDensity float64
	ChunkType       ChunkType
	HasDefinitions  bool
	HasExamples     bool
}

// EntityType is one of the fixed surface categories the extractor emits.
type EntityType string

const (
	EntityProduct EntityType = "PRODUCT"
	EntityTerm    EntityType = "TERM"
	EntityAmount  EntityType = "AMOUNT"
	EntityPercent EntityType = "PERCENT"
	EntityOrg     EntityType = "ORG"
	EntityPerson  EntityType = "PERSON"
	EntityOther   EntityType = "OTHER"
)

// Entity is a normalized domain term or named entity, a node in the graph.
type Entity struct {
	ID                   string
	Text                 string
	Normalized           string
	Type                 EntityType
	FirstSeen            time.Time
	Occurrences          int
	CommunityID          string
	DegreeCentrality     float64
	BetweennessCentrality float64
	IsBridge             bool
	ConnectedCommunities int
}

// Key returns the (normalized, type) uniqueness key for an Entity.
func (e Entity) Key() string {
	return string(e.Type) + "\x00" + e.Normalized
}

// EntityMetrics is the community/centrality subset of Entity's fields,
// written back by a rebuild without touching Occurrences.
type EntityMetrics struct {
	CommunityID           string
	DegreeCentrality      float64
	BetweennessCentrality float64
	IsBridge              bool
	ConnectedCommunities  int
}

// Community is a cluster of entities produced by co-occurrence clustering.
type Community struct {
	ID   string
	Size int
}

// ContainsEntity is the Chunk -> Entity edge with an extraction confidence.
type ContainsEntity struct {
	ChunkID    string
	EntityKey  string
	Confidence float64
}

// RelatedTo is an undirected Entity -- Entity co-occurrence edge.
type RelatedTo struct {
	A        string
	B        string
	Strength int
}

// UndirectedKey returns a canonical, order-independent key for a pair of
// entity keys, used to dedupe RelatedTo edges regardless of insertion order.
func UndirectedKey(a, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}
