// Package refine condenses top-ranked sections into short excerpts built from
// their most query-relevant sentences.
package refine

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/section"
	"github.com/dgallion1/docrank/internal/vector"
)

const (
	// MinSentenceRunes is the trimmed length a sentence must exceed to be kept.
	MinSentenceRunes = 20
	// MaxSentences is how many sentences an excerpt holds.
	MaxSentences = 2
	// FallbackRunes caps the excerpt when a section has no usable sentence.
	FallbackRunes = 300
)

// Refiner builds excerpts for ranked sections.
type Refiner struct {
	MaxSentences  int
	FallbackRunes int
}

// New returns a Refiner with the default limits.
func New() Refiner {
	return Refiner{MaxSentences: MaxSentences, FallbackRunes: FallbackRunes}
}

// Refine returns one excerpt for each of the first topN sections, in order.
func (r Refiner) Refine(ranked []section.Ranked, p persona.Persona, j persona.Job, topN int) []section.Excerpt {
	n := min(max(topN, 0), len(ranked))
	terms := persona.Terms(p, j)

	out := make([]section.Excerpt, 0, n)
	for _, s := range ranked[:n] {
		out = append(out, section.Excerpt{
			Document:    s.Document,
			RefinedText: r.Condense(s.Text, terms),
			Page:        s.Page,
		})
	}
	return out
}

// Condense picks the best-scoring sentences of text against terms, falling
// back to a truncated prefix when no sentence is long enough.
func (r Refiner) Condense(text string, terms map[string]struct{}) string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return truncate(strings.TrimSpace(text), r.FallbackRunes)
	}

	type scored struct {
		text  string
		score float64
	}
	ss := make([]scored, len(sentences))
	for i, s := range sentences {
		ss[i] = scored{text: s, score: Score(s, terms)}
	}
	slices.SortStableFunc(ss, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	keep := ss[:min(r.MaxSentences, len(ss))]
	parts := make([]string, len(keep))
	for i, s := range keep {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

// Sentences splits text after '.', '!' or '?' followed by whitespace and
// returns the trimmed pieces longer than MinSentenceRunes.
func Sentences(text string) []string {
	var out []string
	keep := func(s string) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > MinSentenceRunes {
			out = append(out, s)
		}
	}

	start := 0
	for i := 0; i < len(text); {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			i++
			continue
		}
		end := i + 1
		j := end
		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r) {
				break
			}
			j += size
		}
		if j == end {
			i++
			continue
		}
		keep(text[start:end])
		start = j
		i = j
	}
	keep(text[start:])
	return out
}

// Score is the share of a sentence's distinct words that are query terms.
func Score(sentence string, terms map[string]struct{}) float64 {
	words := vector.WordSet(sentence)
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for w := range words {
		if _, ok := terms[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
