// Package rank orders scored sections and assigns importance ranks.
package rank

import (
	"cmp"
	"slices"

	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/relevance"
	"github.com/dgallion1/docrank/internal/section"
)

// Ranker scores sections and sorts them by descending relevance.
type Ranker struct {
	Scorer relevance.Scorer
}

// New returns a Ranker using scorer.
func New(scorer relevance.Scorer) Ranker {
	return Ranker{Scorer: scorer}
}

// Rank returns new records carrying score and a 1-based rank, sorted by score
// descending. Equal scores keep their input order.
func (r Ranker) Rank(sections []section.Section, p persona.Persona, j persona.Job) []section.Ranked {
	if len(sections) == 0 {
		return nil
	}
	return Order(sections, r.Scorer.Score(sections, p, j))
}

// Order pairs sections with precomputed scores and ranks them.
func Order(sections []section.Section, scores []float64) []section.Ranked {
	scored := make([]section.Scored, len(sections))
	for i, s := range sections {
		scored[i] = section.Scored{Section: s, Score: scores[i]}
	}

	slices.SortStableFunc(scored, func(a, b section.Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})

	ranked := make([]section.Ranked, len(scored))
	for i, s := range scored {
		ranked[i] = section.Ranked{Scored: s, Rank: i + 1}
	}
	return ranked
}

// Top returns at most n leading entries of ranked.
func Top(ranked []section.Ranked, n int) []section.Ranked {
	if n < 0 {
		n = 0
	}
	return ranked[:min(n, len(ranked))]
}
