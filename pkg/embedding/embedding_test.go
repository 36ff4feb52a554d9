package embedding

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedderL2Normalized(t *testing.T) {
	e := NewHashEmbedder(384)
	vecs, err := e.Encode(context.Background(), []string{"the fx forward contract rate"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 384 {
		t.Fatalf("expected one 384-dim vector, got %d vectors of dim %d", len(vecs), len(vecs[0]))
	}
	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1.0) > 1e-4 {
		t.Fatalf("expected L2 norm ~1, got %f", norm)
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(384)
	a, _ := e.Encode(context.Background(), []string{"interest rate swap"})
	b, _ := e.Encode(context.Background(), []string{"interest rate swap"})
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("expected identical output for identical input, differed at index %d", i)
		}
	}
}

func TestHashEmbedderBatchIndependent(t *testing.T) {
	e := NewHashEmbedder(384)
	solo, _ := e.Encode(context.Background(), []string{"fx forward"})
	batch, _ := e.Encode(context.Background(), []string{"unrelated text here", "fx forward"})
	for i := range solo[0] {
		if solo[0][i] != batch[1][i] {
			t.Fatalf("expected batch composition independence, differed at index %d", i)
		}
	}
}
