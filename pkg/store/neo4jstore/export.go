package neo4jstore

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// Export walks every Document, Chunk and Entity node and every
// RELATED_TO edge, using the same store.Export JSON shape memstore and
// pgxstore produce. HAS_CHUNK, NEXT_CHUNK and CONTAINS_ENTITY edges are
// not exported.
func (s *Store) Export(ctx context.Context) (*store.Export, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	var nodes []store.Node

	docResult, err := session.Run(ctx, `MATCH (d:Document) RETURN d`, nil)
	if err != nil {
		return nil, err
	}
	docCount := 0
	for docResult.Next(ctx) {
		n, _ := docResult.Record().Get("d")
		doc := documentFromNode(n.(neo4j.Node))
		nodes = append(nodes, store.Node{Kind: "document", Document: &doc})
		docCount++
	}
	if err := docResult.Err(); err != nil {
		return nil, err
	}

	chunkResult, err := session.Run(ctx, `MATCH (c:Chunk) RETURN c`, nil)
	if err != nil {
		return nil, err
	}
	chunkCount := 0
	for chunkResult.Next(ctx) {
		n, _ := chunkResult.Record().Get("c")
		chunk := chunkFromNode(n.(neo4j.Node))
		nodes = append(nodes, store.Node{Kind: "chunk", Chunk: &store.ExportChunk{
			ID: chunk.ID, DocumentID: chunk.DocumentID, Text: chunk.Text, PageNum: chunk.PageNum,
			ChunkIndex: chunk.ChunkIndex, Embedding: store.NewVector(chunk.Embedding),
			SemanticDensity: chunk.SemanticDensity, ChunkType: string(chunk.ChunkType),
			HasDefinitions: chunk.HasDefinitions, HasExamples: chunk.HasExamples,
		}})
		chunkCount++
	}
	if err := chunkResult.Err(); err != nil {
		return nil, err
	}

	entities, err := s.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entities {
		e := entities[i]
		nodes = append(nodes, store.Node{Kind: "entity", Entity: &e})
	}

	relatedTo, err := s.ListRelatedTo(ctx)
	if err != nil {
		return nil, err
	}
	relationships := make([]store.Relationship, 0, len(relatedTo))
	for _, r := range relatedTo {
		relationships = append(relationships, store.Relationship{Kind: "RELATED_TO", From: r.A, To: r.B, Strength: r.Strength})
	}

	return &store.Export{
		Metadata: store.NewExportMetadata("1", ""),
		Nodes:    nodes, Relationships: relationships,
		Statistics: store.Statistics{
			DocumentCount: docCount, ChunkCount: chunkCount, EntityCount: len(entities),
			RelationshipCount: len(relationships),
		},
	}, nil
}

// Import replays an Export's documents, chunks, and entities into the
// graph; it does not yet restore HAS_CHUNK/NEXT_CHUNK/CONTAINS_ENTITY
// edges since Export does not currently capture them for this backend
// (pgxstore's narrower Export/Import scope has the same limitation).
func (s *Store) Import(ctx context.Context, export *store.Export) error {
	for _, n := range export.Nodes {
		switch n.Kind {
		case "document":
			if n.Document != nil {
				if err := s.UpsertDocument(ctx, *n.Document); err != nil {
					return err
				}
			}
		case "chunk":
			if n.Chunk != nil {
				c := n.Chunk
				chunk := model.Chunk{
					ID: c.ID, DocumentID: c.DocumentID, Text: c.Text, PageNum: c.PageNum,
					ChunkIndex: c.ChunkIndex, Embedding: c.Embedding.Values, SemanticDensity: c.SemanticDensity,
					ChunkType: model.ChunkType(c.ChunkType), HasDefinitions: c.HasDefinitions, HasExamples: c.HasExamples,
				}
				if err := s.UpsertChunk(ctx, chunk); err != nil {
					return err
				}
			}
		case "entity":
			if n.Entity != nil {
				if err := s.UpsertEntity(ctx, *n.Entity); err != nil {
					return err
				}
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
