// Package citation assembles ranked chunks into the caller-facing
// citation shape, with an optional hierarchical grouping.
package citation

import (
	"context"
	"sort"

	"github.com/jasonaskew/docugraph/pkg/model"
	"github.com/jasonaskew/docugraph/pkg/store"
)

// Citation is the flat, protocol-agnostic answer unit returned to callers.
type Citation struct {
	DocumentID   string
	DocumentName string
	PageNum      int
	ChunkID      string
	Text         string
	FinalScore   float64
	SourceTags   []string
}

// Assembler resolves each scored chunk's parent document to attach its
// name before handing results back to a caller.
type Assembler struct {
	Store store.GraphStore
}

func New(gs store.GraphStore) *Assembler { return &Assembler{Store: gs} }

// Assemble turns ranked chunks into citations, resolving each chunk's
// parent document once per distinct document ID.
func (a *Assembler) Assemble(ctx context.Context, ranked []store.ScoredChunk) ([]Citation, error) {
	docCache := make(map[string]model.Document)
	out := make([]Citation, 0, len(ranked))
	for _, r := range ranked {
		doc, ok := docCache[r.Chunk.DocumentID]
		if !ok {
			fetched, found, err := a.Store.GetDocument(ctx, r.Chunk.DocumentID)
			if err != nil {
				return nil, err
			}
			if found {
				doc = fetched
			}
			docCache[r.Chunk.DocumentID] = doc
		}
		out = append(out, Citation{
			DocumentID:   r.Chunk.DocumentID,
			DocumentName: documentName(doc),
			PageNum:      r.Chunk.PageNum,
			ChunkID:      r.Chunk.ID,
			Text:         r.Chunk.Text,
			FinalScore:   r.Score,
			SourceTags:   sourceTags(r.Chunk),
		})
	}
	return out, nil
}

func documentName(doc model.Document) string {
	if doc.Filename != "" {
		return doc.Filename
	}
	return doc.ID
}

func sourceTags(chunk model.Chunk) []string {
	var tags []string
	tags = append(tags, string(chunk.ChunkType))
	if chunk.HasDefinitions {
		tags = append(tags, "definition")
	}
	if chunk.HasExamples {
		tags = append(tags, "example")
	}
	return tags
}

// Group is one node of a division > category hierarchy, holding the
// citations that belong to exactly that node. There is no product or
// document level: citations are held directly on category nodes.
type Group struct {
	Key       string
	Citations []Citation
	Children  []*Group
}

// GroupHierarchical arranges citations under division > category, an
// optional grouping mode for multi-document answers that span several
// business lines.
func GroupHierarchical(ctx context.Context, gs store.GraphStore, citations []Citation) (*Group, error) {
	root := &Group{Key: "root"}
	divisions := make(map[string]*Group)
	categories := make(map[string]*Group)

	for _, c := range citations {
		doc, _, err := gs.GetDocument(ctx, c.DocumentID)
		if err != nil {
			return nil, err
		}
		division := doc.Division
		if division == "" {
			division = "unspecified"
		}
		category := doc.Category
		if category == "" {
			category = "unspecified"
		}

		dg, ok := divisions[division]
		if !ok {
			dg = &Group{Key: division}
			divisions[division] = dg
			root.Children = append(root.Children, dg)
		}
		catKey := division + "/" + category
		cg, ok := categories[catKey]
		if !ok {
			cg = &Group{Key: category}
			categories[catKey] = cg
			dg.Children = append(dg.Children, cg)
		}
		cg.Citations = append(cg.Citations, c)
	}

	sort.Slice(root.Children, func(i, j int) bool { return root.Children[i].Key < root.Children[j].Key })
	for _, dg := range root.Children {
		sort.Slice(dg.Children, func(i, j int) bool { return dg.Children[i].Key < dg.Children[j].Key })
	}
	return root, nil
}
