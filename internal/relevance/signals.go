package relevance

import (
	"github.com/dgallion1/docrank/internal/section"
	"github.com/dgallion1/docrank/internal/vector"
)

// ActionVerbs is the closed set of words counted as actionable.
var ActionVerbs = map[string]struct{}{
	"create":    {},
	"design":    {},
	"develop":   {},
	"optimize":  {},
	"optimise":  {},
	"evaluate":  {},
	"analyze":   {},
	"analyse":   {},
	"build":     {},
	"identify":  {},
	"summarize": {},
	"summarise": {},
	"implement": {},
	"compare":   {},
	"assess":    {},
	"improve":   {},
	"discover":  {},
	"predict":   {},
	"plan":      {},
	"execute":   {},
	"monitor":   {},
	"measure":   {},
}

// Semantic returns the TF-IDF cosine similarity of each section's text to query.
func Semantic(sections []section.Section, query string) []float64 {
	corpus := make([]string, len(sections))
	for i, s := range sections {
		corpus[i] = s.Text
	}
	q, docs := vector.Build(corpus, query)

	out := make([]float64, len(sections))
	for i, d := range docs {
		out[i] = vector.Cosine(d, q)
	}
	return out
}

// PersonaOverlap returns the fraction of distinct persona words found in each
// section's text.
func PersonaOverlap(sections []section.Section, personaText string) []float64 {
	personaWords := vector.WordSet(personaText)
	out := make([]float64, len(sections))
	for i, s := range sections {
		words := vector.WordSet(s.Text)
		if len(personaWords) == 0 || len(words) == 0 {
			continue
		}
		hits := 0
		for w := range personaWords {
			if _, ok := words[w]; ok {
				hits++
			}
		}
		out[i] = float64(hits) / float64(len(personaWords))
	}
	return out
}

// Actionability returns the share of each section's words that are action verbs.
func Actionability(sections []section.Section) []float64 {
	out := make([]float64, len(sections))
	for i, s := range sections {
		words := vector.Tokenize(s.Text)
		if len(words) == 0 {
			continue
		}
		n := 0
		for _, w := range words {
			if _, ok := ActionVerbs[w]; ok {
				n++
			}
		}
		out[i] = float64(n) / float64(len(words))
	}
	return out
}

// CrossDocument scores each section by how many distinct documents share its
// exact title, relative to the most shared title.
func CrossDocument(sections []section.Section) []float64 {
	docsByTitle := make(map[string]map[string]struct{})
	for _, s := range sections {
		docs, ok := docsByTitle[s.Title]
		if !ok {
			docs = make(map[string]struct{})
			docsByTitle[s.Title] = docs
		}
		docs[s.Document] = struct{}{}
	}

	maxFreq := 0
	for _, docs := range docsByTitle {
		maxFreq = max(maxFreq, len(docs))
	}

	out := make([]float64, len(sections))
	if maxFreq == 0 {
		return out
	}
	for i, s := range sections {
		out[i] = float64(len(docsByTitle[s.Title])) / float64(maxFreq)
	}
	return out
}

// Normalize min-max scales values into [0,1]. A constant input maps to all zeros.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return out
	}
	span := hi - lo
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}
