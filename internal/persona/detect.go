package persona

import "strings"

// Detector infers a persona and job from raw document text.
type Detector interface {
	Detect(text string) (Persona, Job)
}

// Rule maps any of Keywords (substring match on lowercased text) to a persona and task.
type Rule struct {
	Keywords []string
	Role     string
	Task     string
}

// KeywordDetector returns the first rule whose keyword occurs in the text,
// or the fallback persona when nothing matches.
type KeywordDetector struct {
	Rules        []Rule
	FallbackRole string
	FallbackTask string
}

// DefaultRules is the built-in keyword table, evaluated in order.
var DefaultRules = []Rule{
	{
		Keywords: []string{"research", "literature"},
		Role:     "Researcher",
		Task:     "Prepare a literature review of the document's contributions",
	},
	{
		Keywords: []string{"student", "exam", "undergraduate"},
		Role:     "Student",
		Task:     "Identify and study the key concepts for exam preparation",
	},
	{
		Keywords: []string{"analysis", "analyst", "financial"},
		Role:     "Business Analyst",
		Task:     "Extract insights and analyse trends from the document",
	},
	{
		Keywords: []string{"patient", "medical", "nursing"},
		Role:     "Healthcare Professional",
		Task:     "Summarise clinical information relevant to patient care",
	},
}

// NewKeywordDetector returns a detector over DefaultRules.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{
		Rules:        DefaultRules,
		FallbackRole: "Reader",
		FallbackTask: "Summarise the key sections of the document",
	}
}

func (d *KeywordDetector) Detect(text string) (Persona, Job) {
	lower := strings.ToLower(text)
	for _, r := range d.Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return Persona{Role: r.Role}, Job{Task: r.Task}
			}
		}
	}
	return Persona{Role: d.FallbackRole}, Job{Task: d.FallbackTask}
}
