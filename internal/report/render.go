package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	rankStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)

	excerptStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Width(96)
)

// Render writes a human-readable summary of r for terminals.
func Render(w io.Writer, r Result) {
	m := r.Metadata
	header := fmt.Sprintf("%s %s\n%s %s\n%s %s\n%s %s",
		dimStyle.Render("Persona:"), titleStyle.Render(orDash(m.Persona)),
		dimStyle.Render("Task:"), orDash(m.JobToBeDone),
		dimStyle.Render("Documents:"), strings.Join(m.InputDocuments, ", "),
		dimStyle.Render("Generated:"), m.ProcessingTimestamp,
	)
	fmt.Fprintln(w, headerBoxStyle.Render(header))

	for i, s := range r.ExtractedSections {
		fmt.Fprintf(w, "%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", s.ImportanceRank)),
			s.SectionTitle,
			dimStyle.Render(fmt.Sprintf("(%s, p.%d)", s.Document, s.PageNumber)),
		)
		if i < len(r.SubsectionAnalysis) {
			fmt.Fprintln(w, excerptStyle.Render(r.SubsectionAnalysis[i].RefinedText))
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
