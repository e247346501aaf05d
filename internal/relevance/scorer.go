// Package relevance scores sections against a persona and job.
package relevance

import (
	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/section"
)

// Signals holds the raw, unnormalized per-section signal values.
type Signals struct {
	Semantic []float64
	Persona  []float64
	Action   []float64
	CrossDoc []float64
}

// Scorer combines the four relevance signals with fixed weights.
type Scorer struct {
	Weights Weights
}

// NewScorer returns a Scorer using w.
func NewScorer(w Weights) Scorer {
	return Scorer{Weights: w}
}

// Signals computes every raw signal for sections.
func (s Scorer) Signals(sections []section.Section, p persona.Persona, j persona.Job) Signals {
	return Signals{
		Semantic: Semantic(sections, persona.Query(p, j)),
		Persona:  PersonaOverlap(sections, p.Text()),
		Action:   Actionability(sections),
		CrossDoc: CrossDocument(sections),
	}
}

// Score returns one combined score per section, in input order. When the
// weights sum to at most 1 every score is within [0,1].
func (s Scorer) Score(sections []section.Section, p persona.Persona, j persona.Job) []float64 {
	sig := s.Signals(sections, p, j)
	sem := Normalize(sig.Semantic)
	per := Normalize(sig.Persona)
	act := Normalize(sig.Action)
	cross := Normalize(sig.CrossDoc)

	w := s.Weights
	scores := make([]float64, len(sections))
	for i := range sections {
		scores[i] = w.Semantic*sem[i] + w.Persona*per[i] + w.Action*act[i] + w.CrossDoc*cross[i]
	}
	return scores
}
