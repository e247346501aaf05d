package relevance

import (
	"errors"
	"fmt"
)

// Default signal weights. They sum to 1 so combined scores stay in [0,1].
const (
	WeightSemantic = 0.40
	WeightPersona  = 0.25
	WeightAction   = 0.20
	WeightCrossDoc = 0.15
)

// Weights sets how much each normalized signal contributes to the final score.
type Weights struct {
	Semantic float64 `toml:"semantic"`
	Persona  float64 `toml:"persona"`
	Action   float64 `toml:"action"`
	CrossDoc float64 `toml:"cross_doc"`
}

// DefaultWeights returns the built-in weighting.
func DefaultWeights() Weights {
	return Weights{
		Semantic: WeightSemantic,
		Persona:  WeightPersona,
		Action:   WeightAction,
		CrossDoc: WeightCrossDoc,
	}
}

// Validate rejects negative weights and an all-zero weighting.
func (w Weights) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"semantic", w.Semantic},
		{"persona", w.Persona},
		{"action", w.Action},
		{"cross_doc", w.CrossDoc},
	} {
		if f.v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %g", f.name, f.v)
		}
	}
	sum := w.Sum()
	if sum == 0 {
		return errors.New("at least one weight must be positive")
	}
	// Scores must stay within [0,1].
	if sum > 1+1e-9 {
		return fmt.Errorf("weights must sum to at most 1, got %g", sum)
	}
	return nil
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Persona + w.Action + w.CrossDoc
}
