// Package planner performs deterministic query classification, keyword
// extraction, and retriever strategy selection.
package planner

import (
	"regexp"
	"strings"

	"github.com/jasonaskew/docugraph/pkg/store"
)

// QueryClass is one of the fixed pattern classes a query can be sorted into.
type QueryClass string

const (
	ClassDefinition QueryClass = "definition"
	ClassRequirement QueryClass = "requirement"
	ClassFee        QueryClass = "fee"
	ClassProcess    QueryClass = "process"
	ClassLimit      QueryClass = "limit"
	ClassGeneral    QueryClass = "general"
)

// Options are the query input a caller can set explicitly: a strategy
// hint plus retrieval knobs.
type Options struct {
	TopK        int
	UseVector   bool
	UseRerank   bool
	StrategyHint string
	Filter      store.Filter
}

// Plan names which retrievers to run, their budgets, and the classified
// query metadata reranking and filtering downstream use.
type Plan struct {
	Query      string
	Class      QueryClass
	Keywords   []string
	TopK       int
	UseVector  bool
	UseRerank  bool
	Strategy   string
	Filter     store.Filter
}

var classPatterns = map[QueryClass]*regexp.Regexp{
	ClassDefinition: regexp.MustCompile(`(?i)\bwhat (is|are)\b|\bdefine\b|\bmeaning of\b|\bdefinition of\b`),
	ClassFee:        regexp.MustCompile(`(?i)\b(fee|charge|cost|premium|pricing)\b`),
	ClassRequirement: regexp.MustCompile(`(?i)\b(require|eligib|qualify|must|need to)\b`),
	ClassProcess:    regexp.MustCompile(`(?i)\b(how (do|to|can)|process|procedure|steps to)\b`),
	ClassLimit:      regexp.MustCompile(`(?i)\b(limit|maximum|minimum|cap on|ceiling)\b`),
}

// classOrder fixes the precedence used when more than one class pattern
// matches, so classification stays deterministic.
var classOrder = []QueryClass{ClassDefinition, ClassFee, ClassRequirement, ClassProcess, ClassLimit}

func classify(query string) QueryClass {
	for _, class := range classOrder {
		if classPatterns[class].MatchString(query) {
			return class
		}
	}
	return ClassGeneral
}

var genericStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "in": {}, "is": {}, "are": {},
	"for": {}, "and": {}, "or": {}, "on": {}, "with": {}, "what": {}, "how": {},
	"do": {}, "does": {}, "can": {}, "i": {}, "it": {}, "that": {}, "this": {},
	"be": {}, "by": {}, "at": {}, "as": {}, "from": {}, "my": {}, "me": {},
}

// bankingGenericStopwords are dropped only when not part of a recognized
// noun phrase (conservatively: always dropped here, since the curated
// product/term pattern library in entityextract is what recovers the
// specific noun phrases a query actually cares about).
var bankingGenericStopwords = map[string]struct{}{
	"account": {}, "bank": {}, "banking": {},
}

// classRequiredRe promotes additional tokens for class-specific queries,
// e.g. re-promoting fee-related words a fee query would otherwise stop.
var classRequiredRe = map[QueryClass]*regexp.Regexp{
	ClassFee: regexp.MustCompile(`(?i)\b(fee|charge|cost|premium)\b`),
}

var numberRe = regexp.MustCompile(`^\d+(\.\d+)?%?$`)
var tokenRe = regexp.MustCompile(`[a-zA-Z0-9%.]+`)

func extractKeywords(query string, class QueryClass) []string {
	tokens := tokenRe.FindAllString(strings.ToLower(query), -1)

	seen := make(map[string]struct{})
	var out []string
	for _, tok := range tokens {
		if numberRe.MatchString(tok) {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				out = append(out, tok)
			}
			continue
		}
		if _, stop := genericStopwords[tok]; stop {
			continue
		}
		if _, stop := bankingGenericStopwords[tok]; stop {
			if re, ok := classRequiredRe[class]; ok && re.MatchString(tok) {
				// fall through: still required by the class promotion rule
			} else {
				continue
			}
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	if re, ok := classRequiredRe[class]; ok {
		for _, tok := range tokens {
			if re.MatchString(tok) {
				if _, ok := seen[tok]; !ok {
					seen[tok] = struct{}{}
					out = append(out, tok)
				}
			}
		}
	}
	return out
}

// Plan builds a retrieval plan for a raw query string and caller options.
func Plan(query string, opts Options) Plan {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	class := classify(query)
	strategy := opts.StrategyHint
	if strategy == "" {
		strategy = "hybrid"
	}
	return Plan{
		Query: query, Class: class, Keywords: extractKeywords(query, class),
		TopK: opts.TopK, UseVector: opts.UseVector || strategy == "hybrid" || strategy == "vector",
		UseRerank: opts.UseRerank, Strategy: strategy, Filter: opts.Filter,
	}
}
