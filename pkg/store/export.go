package store

import "github.com/jasonaskew/docugraph/pkg/model"

// schemaRevision is bumped whenever the exported node/edge shape changes
// in a way older importers can't read.
const schemaRevision = 1

// Vector is the tagged embedding encoding used in Export JSON:
// {"_type":"vector","dimension":D,"values":[...]}.
type Vector struct {
	Type      string    `json:"_type"`
	Dimension int       `json:"dimension"`
	Values    []float32 `json:"values"`
}

func NewVector(values []float32) Vector {
	return Vector{Type: "vector", Dimension: len(values), Values: values}
}

// ExportMetadata is the top-level metadata block of an Export document.
type ExportMetadata struct {
	Version          string `json:"version"`
	ExportTimestamp  string `json:"export_timestamp"`
	SchemaRevision   int    `json:"schema_revision"`
}

// Node is one exported graph node, tagged by kind.
type Node struct {
	Kind     string          `json:"kind"`
	Document *model.Document `json:"document,omitempty"`
	Chunk    *ExportChunk    `json:"chunk,omitempty"`
	Entity   *model.Entity   `json:"entity,omitempty"`
	Community *model.Community `json:"community,omitempty"`
}

// ExportChunk mirrors model.Chunk but serializes its embedding through the
// tagged Vector encoding instead of a bare float array.
type ExportChunk struct {
	ID              string    `json:"id"`
	DocumentID      string    `json:"document_id"`
	Text            string    `json:"text"`
	PageNum         int       `json:"page_num"`
	ChunkIndex      int       `json:"chunk_index"`
	Embedding       Vector    `json:"embedding"`
	SemanticDensity float64   `json:"semantic_density"`
	ChunkType       string    `json:"chunk_type"`
	HasDefinitions  bool      `json:"has_definitions"`
	HasExamples     bool      `json:"has_examples"`
}

// Relationship is one exported edge, tagged by kind.
type Relationship struct {
	Kind       string  `json:"kind"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Confidence float64 `json:"confidence,omitempty"`
	Strength   int     `json:"strength,omitempty"`
}

// Statistics summarizes the exported graph.
type Statistics struct {
	DocumentCount     int `json:"document_count"`
	ChunkCount        int `json:"chunk_count"`
	EntityCount       int `json:"entity_count"`
	CommunityCount    int `json:"community_count"`
	RelationshipCount int `json:"relationship_count"`
}

// Export is the full JSON document produced by GraphStore.Export and
// consumed by GraphStore.Import.
type Export struct {
	Metadata      ExportMetadata `json:"metadata"`
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Statistics    Statistics     `json:"statistics"`
}

func NewExportMetadata(version, timestampRFC3339 string) ExportMetadata {
	return ExportMetadata{Version: version, ExportTimestamp: timestampRFC3339, SchemaRevision: schemaRevision}
}
