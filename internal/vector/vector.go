// Package vector builds sparse TF-IDF term vectors and compares them.
package vector

import (
	"math"
	"slices"
	"strings"
	"unicode"
)

// Vector is a sparse term → weight mapping. Absent terms weigh 0.
type Vector map[string]float64

// Tokenize lowercases text, turns every rune that is not a letter, digit or
// whitespace into a space and splits on whitespace.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))
	return strings.Fields(cleaned)
}

// WordSet returns the distinct tokens of text.
func WordSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// TermFrequency returns count/total for each token. Empty input yields an empty map.
func TermFrequency(tokens []string) map[string]float64 {
	tf := make(map[string]float64)
	if len(tokens) == 0 {
		return tf
	}
	counts := make(map[string]int)
	for _, t := range tokens {
		counts[t]++
	}
	total := float64(len(tokens))
	for t, c := range counts {
		tf[t] = float64(c) / total
	}
	return tf
}

// IDF computes the smoothed inverse document frequency
// ln((1+N)/(1+df)) + 1 over docs.
func IDF(docs [][]string) map[string]float64 {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return idf
}

// Weigh combines a token list with idf weights into a TF-IDF vector.
func Weigh(tokens []string, idf map[string]float64) Vector {
	tf := TermFrequency(tokens)
	v := make(Vector, len(tf))
	for t, f := range tf {
		v[t] = f * idf[t]
	}
	return v
}

// Build vectorizes query and every corpus text against a shared idf table in
// which the query counts as one document.
func Build(corpus []string, query string) (Vector, []Vector) {
	queryTokens := Tokenize(query)
	docs := make([][]string, 0, len(corpus)+1)
	docs = append(docs, queryTokens)
	for _, text := range corpus {
		docs = append(docs, Tokenize(text))
	}

	idf := IDF(docs)
	vectors := make([]Vector, len(corpus))
	for i, tokens := range docs[1:] {
		vectors[i] = Weigh(tokens, idf)
	}
	return Weigh(queryTokens, idf), vectors
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty
// or has zero norm. Keys are visited in sorted order so the result does not
// depend on map iteration and Cosine(a, b) == Cosine(b, a) exactly.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot float64
	for _, k := range sortedKeys(a) {
		if w, ok := b[k]; ok {
			dot += a[k] * w
		}
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (na * nb)
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}

// Norm returns the L2 norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, k := range sortedKeys(v) {
		sum += v[k] * v[k]
	}
	return math.Sqrt(sum)
}

func sortedKeys(v Vector) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
