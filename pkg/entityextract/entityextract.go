// Package entityextract performs deterministic pattern, numeric, and
// statistical extraction of entity mentions from chunk text.
package entityextract

import (
	"regexp"
	"strings"

	"github.com/jasonaskew/docugraph/pkg/model"
)

// Mention is a single extracted entity occurrence within a chunk.
type Mention struct {
	Surface    string
	Normalized string
	Type       model.EntityType
	Confidence float64
	SpanStart  int
	SpanEnd    int
}

// Fixed confidences per extraction source.
const (
	confidenceNumeric    = 0.95
	confidencePattern    = 0.85
	confidenceStatistical = 0.90
)

// Extractor finds entity mentions in text using a curated pattern library,
// numeric extractors, and a small statistical-NER stand-in, then
// normalizes and deduplicates within each call.
type Extractor struct {
	productPatterns []*regexp.Regexp
	termPatterns    []*regexp.Regexp
	aliases         map[string]string
}

// New builds an Extractor from the package's built-in pattern tables.
func New() *Extractor {
	return &Extractor{
		productPatterns: compileAll(productPatterns),
		termPatterns:    compileAll(termPatterns),
		aliases:         aliasTable,
	}
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)\b`+p+`\b`))
	}
	return out
}

// Extract returns the deduplicated mention set for a chunk of text.
// Restrict, when non-empty, limits output to the given entity types (used
// by the query-time entity retriever, which only wants PRODUCT/TERM).
func (e *Extractor) Extract(text string, restrict ...model.EntityType) []Mention {
	allowed := toSet(restrict)

	byKey := make(map[string]Mention)

	add := func(m Mention) {
		if len(allowed) > 0 {
			if _, ok := allowed[m.Type]; !ok {
				return
			}
		}
		key := string(m.Type) + "\x00" + m.Normalized
		if existing, ok := byKey[key]; !ok || m.Confidence > existing.Confidence {
			byKey[key] = m
		}
	}

	for _, m := range e.extractNumeric(text) {
		add(m)
	}
	for _, m := range e.extractPatterns(text) {
		add(m)
	}
	for _, m := range e.extractStatistical(text) {
		add(m)
	}

	out := make([]Mention, 0, len(byKey))
	for _, m := range byKey {
		out = append(out, m)
	}
	return out
}

func toSet(types []model.EntityType) map[model.EntityType]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[model.EntityType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

var (
	currencyRe = regexp.MustCompile(`(?i)(?:[$€£¥]|USD|EUR|GBP|JPY)\s?\d[\d,]*(?:\.\d+)?|\d[\d,]*(?:\.\d+)?\s?(?:USD|EUR|GBP|JPY|dollars?|pounds?|euros?)`)
	percentRe  = regexp.MustCompile(`\d+(?:\.\d+)?\s?%|\d+(?:\.\d+)?\s?(?:percent|bps|basis points)`)
)

func (e *Extractor) extractNumeric(text string) []Mention {
	var out []Mention
	for _, loc := range currencyRe.FindAllStringIndex(text, -1) {
		surface := text[loc[0]:loc[1]]
		out = append(out, Mention{
			Surface: surface, Normalized: normalize(surface), Type: model.EntityAmount,
			Confidence: confidenceNumeric, SpanStart: loc[0], SpanEnd: loc[1],
		})
	}
	for _, loc := range percentRe.FindAllStringIndex(text, -1) {
		surface := text[loc[0]:loc[1]]
		out = append(out, Mention{
			Surface: surface, Normalized: normalize(surface), Type: model.EntityPercent,
			Confidence: confidenceNumeric, SpanStart: loc[0], SpanEnd: loc[1],
		})
	}
	return out
}

func (e *Extractor) extractPatterns(text string) []Mention {
	var out []Mention
	for _, re := range e.productPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			surface := text[loc[0]:loc[1]]
			out = append(out, Mention{
				Surface: surface, Normalized: e.canonicalize(normalize(surface)), Type: model.EntityProduct,
				Confidence: confidencePattern, SpanStart: loc[0], SpanEnd: loc[1],
			})
		}
	}
	for _, re := range e.termPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			surface := text[loc[0]:loc[1]]
			out = append(out, Mention{
				Surface: surface, Normalized: e.canonicalize(normalize(surface)), Type: model.EntityTerm,
				Confidence: confidencePattern, SpanStart: loc[0], SpanEnd: loc[1],
			})
		}
	}
	return out
}

// capitalizedRunRe approximates a statistical NER model's proper-noun
// detection: runs of 1-4 capitalized words, wherever they occur (a
// capitalized sentence-initial word is not excluded).
var capitalizedRunRe = regexp.MustCompile(`\b([A-Z][a-zA-Z&.]*(?:\s+[A-Z][a-zA-Z&.]*){0,3})\b`)

var orgSuffixes = regexp.MustCompile(`(?i)\b(inc|corp|ltd|llc|plc|bank|group|holdings)\b`)

func (e *Extractor) extractStatistical(text string) []Mention {
	var out []Mention
	for _, loc := range capitalizedRunRe.FindAllStringIndex(text, -1) {
		surface := text[loc[0]:loc[1]]
		if len(strings.Fields(surface)) < 2 && !orgSuffixes.MatchString(surface) {
			continue
		}
		entityType := model.EntityOrg
		if !orgSuffixes.MatchString(surface) {
			entityType = model.EntityPerson
		}
		out = append(out, Mention{
			Surface: surface, Normalized: normalize(surface), Type: entityType,
			Confidence: confidenceStatistical, SpanStart: loc[0], SpanEnd: loc[1],
		})
	}
	return out
}

var punctStrip = regexp.MustCompile(`[^\p{L}\p{N}\s/\-]`)
var whitespaceCollapse = regexp.MustCompile(`\s+`)

// normalize casefolds, strips punctuation except / and -, and collapses
// whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = punctStrip.ReplaceAllString(s, "")
	s = whitespaceCollapse.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func (e *Extractor) canonicalize(normalized string) string {
	if canon, ok := e.aliases[normalized]; ok {
		return canon
	}
	return normalized
}
