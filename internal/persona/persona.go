package persona

import (
	"strings"

	"github.com/dgallion1/docrank/internal/vector"
)

// Persona describes who is reading. Missing fields decode as empty strings.
type Persona struct {
	Role        string `json:"role" yaml:"role"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Job is the task the persona is trying to accomplish.
type Job struct {
	Task string `json:"task" yaml:"task"`
}

// Text returns role and description joined by a single space.
func (p Persona) Text() string {
	return p.Role + " " + p.Description
}

// Query is the similarity target: role, description and task joined by single
// spaces and trimmed.
func Query(p Persona, j Job) string {
	return strings.TrimSpace(p.Role + " " + p.Description + " " + j.Task)
}

// Terms returns the distinct normalized words of the query.
func Terms(p Persona, j Job) map[string]struct{} {
	return vector.WordSet(Query(p, j))
}

// Complete reports whether both the role and the task are present.
func Complete(p Persona, j Job) bool {
	return strings.TrimSpace(p.Role) != "" && strings.TrimSpace(j.Task) != ""
}

// Fill returns p and j with empty role/task replaced from the detected values.
// Fields that are already set, including the description, are kept.
func Fill(p Persona, j Job, detected Persona, detectedJob Job) (Persona, Job) {
	if strings.TrimSpace(p.Role) == "" {
		p.Role = detected.Role
	}
	if strings.TrimSpace(j.Task) == "" {
		j = detectedJob
	}
	return p, j
}
