// Package report shapes ranked sections and excerpts into the output document.
package report

import (
	"time"

	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/section"
)

// TimestampLayout is ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Result is the full output for one document collection.
type Result struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

// Metadata describes the inputs of a run.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is a ranked section without its internal score.
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionAnalysis is the refined excerpt of one top-ranked section.
type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Build assembles a Result from the top-ranked sections and their excerpts.
// top and excerpts are expected to be aligned.
func Build(documents []string, p persona.Persona, j persona.Job, top []section.Ranked, excerpts []section.Excerpt, now time.Time) Result {
	res := Result{
		Metadata: Metadata{
			InputDocuments:      append([]string{}, documents...),
			Persona:             p.Role,
			JobToBeDone:         j.Task,
			ProcessingTimestamp: Timestamp(now),
		},
		ExtractedSections:  make([]ExtractedSection, len(top)),
		SubsectionAnalysis: make([]SubsectionAnalysis, len(excerpts)),
	}
	for i, s := range top {
		res.ExtractedSections[i] = ExtractedSection{
			Document:       s.Document,
			SectionTitle:   s.Title,
			ImportanceRank: s.Rank,
			PageNumber:     s.Page,
		}
	}
	for i, e := range excerpts {
		res.SubsectionAnalysis[i] = SubsectionAnalysis{
			Document:    e.Document,
			RefinedText: e.RefinedText,
			PageNumber:  e.Page,
		}
	}
	return res
}

// Timestamp formats t in UTC using TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
