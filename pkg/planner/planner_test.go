package planner

import "testing"

func TestClassifyFeeQuery(t *testing.T) {
	p := Plan("how much is the fee for an international wire transfer?", Options{})
	if p.Class != ClassFee {
		t.Fatalf("expected fee class, got %s", p.Class)
	}
}

func TestClassifyDefinitionPrecedesFee(t *testing.T) {
	// "what is" matches definition; the query also mentions "charge" so
	// this exercises the fixed class precedence order.
	p := Plan("what is a demand guarantee charge?", Options{})
	if p.Class != ClassDefinition {
		t.Fatalf("expected definition class to take precedence, got %s", p.Class)
	}
}

func TestClassifyGeneralFallback(t *testing.T) {
	p := Plan("tell me about trade finance options", Options{})
	if p.Class != ClassGeneral {
		t.Fatalf("expected general class, got %s", p.Class)
	}
}

func TestExtractKeywordsDropsStopwordsKeepsNumbers(t *testing.T) {
	p := Plan("what is the maximum limit for a 10000 dollar transfer?", Options{})
	foundNumber := false
	for _, k := range p.Keywords {
		if k == "10000" {
			foundNumber = true
		}
		if k == "the" || k == "a" || k == "for" || k == "is" {
			t.Fatalf("expected stopword %q to be removed, got %v", k, p.Keywords)
		}
	}
	if !foundNumber {
		t.Errorf("expected numeric token 10000 to survive verbatim, got %v", p.Keywords)
	}
}

func TestFeeClassPromotesRequiredKeyword(t *testing.T) {
	p := Plan("how much does it cost to open an account?", Options{})
	found := false
	for _, k := range p.Keywords {
		if k == "cost" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fee-class required keyword 'cost' to be promoted, got %v", p.Keywords)
	}
}

func TestPlanDefaultsTopKAndStrategy(t *testing.T) {
	p := Plan("how do I apply for a letter of credit?", Options{})
	if p.TopK != 10 {
		t.Errorf("expected default top_k of 10, got %d", p.TopK)
	}
	if p.Strategy != "hybrid" || !p.UseVector {
		t.Errorf("expected default hybrid strategy with vector enabled, got %+v", p)
	}
}
