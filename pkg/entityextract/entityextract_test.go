package entityextract

import (
	"testing"

	"github.com/jasonaskew/docugraph/pkg/model"
)

func TestExtractCanonicalizesAliases(t *testing.T) {
	e := New()
	mentions := e.Extract("The client requested an FX Forward and later a foreign exchange forward for hedging.")
	var found bool
	for _, m := range mentions {
		if m.Type == model.EntityProduct && m.Normalized == "fx_forward" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected both surface variants to canonicalize to fx_forward, got %+v", mentions)
	}
}

func TestExtractDedupesWithinChunk(t *testing.T) {
	e := New()
	mentions := e.Extract("An FX Forward is a contract. Another fx forward appears here too.")
	count := 0
	for _, m := range mentions {
		if m.Type == model.EntityProduct && m.Normalized == "fx_forward" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one deduplicated mention, got %d", count)
	}
}

func TestExtractNumericAmountAndPercent(t *testing.T) {
	e := New()
	mentions := e.Extract("The fee is $1,500.00 and the rate is 3.25%.")
	var sawAmount, sawPercent bool
	for _, m := range mentions {
		if m.Type == model.EntityAmount {
			sawAmount = true
			if m.Confidence != confidenceNumeric {
				t.Errorf("expected numeric confidence %v, got %v", confidenceNumeric, m.Confidence)
			}
		}
		if m.Type == model.EntityPercent {
			sawPercent = true
		}
	}
	if !sawAmount || !sawPercent {
		t.Fatalf("expected both AMOUNT and PERCENT mentions, got %+v", mentions)
	}
}

func TestExtractRestrictToTypes(t *testing.T) {
	e := New()
	mentions := e.Extract("Acme Corp signed an FX Forward worth 5%.", model.EntityProduct, model.EntityTerm)
	for _, m := range mentions {
		if m.Type != model.EntityProduct && m.Type != model.EntityTerm {
			t.Fatalf("expected only PRODUCT/TERM mentions, got %s", m.Type)
		}
	}
}

func TestNormalizeCollapsesWhitespaceAndPunctuation(t *testing.T) {
	got := normalize("  FX-Forward,  Contract!! ")
	want := "fx-forward contract"
	if got != want {
		t.Fatalf("normalize() = %q, want %q", got, want)
	}
}
