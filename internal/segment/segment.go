// Package segment splits per-page document text into titled sections.
package segment

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docrank/internal/section"
)

// PageSource yields page text one page at a time.
type PageSource interface {
	PageCount() (int, error)
	PageText(page int) (string, error)
}

// Gap records a page whose text could not be extracted.
type Gap struct {
	Page int
	Err  error
}

func (g Gap) Error() string {
	return fmt.Sprintf("page %d: %v", g.Page, g.Err)
}

func (g Gap) Unwrap() error { return g.Err }

// Result is the output of segmenting one document.
type Result struct {
	Sections []section.Section
	Gaps     []Gap
}

// Segmenter groups page lines into sections using a heading rule chain.
// It holds no state between calls.
type Segmenter struct {
	Rules []Rule
}

// New returns a Segmenter using DefaultRules.
func New() *Segmenter {
	return &Segmenter{Rules: DefaultRules}
}

// Segment reads every page from src. A page that fails to extract is recorded
// as a Gap and skipped; only a failure to count pages is returned as an error.
func (s *Segmenter) Segment(src PageSource) (Result, error) {
	count, err := src.PageCount()
	if err != nil {
		return Result{}, fmt.Errorf("count pages: %w", err)
	}

	var res Result
	for n := 1; n <= count; n++ {
		text, err := src.PageText(n)
		if err != nil {
			res.Gaps = append(res.Gaps, Gap{Page: n, Err: err})
			continue
		}
		res.Sections = append(res.Sections, s.segmentPage(n, text)...)
	}
	return res, nil
}

// SegmentPages segments pages that are already in memory, in the given order.
func (s *Segmenter) SegmentPages(pages []section.Page) []section.Section {
	var out []section.Section
	for _, p := range pages {
		out = append(out, s.segmentPage(p.Number, p.Text)...)
	}
	return out
}

// segmentPage applies the grouping algorithm to one page. Lines before the
// first heading are discarded once a heading opens, and a heading whose body
// is empty produces no section.
func (s *Segmenter) segmentPage(page int, text string) []section.Section {
	lines := pageLines(text)
	if len(lines) == 0 {
		return nil
	}

	var (
		out   []section.Section
		title string
		open  bool
		body  []string
	)
	flush := func() {
		if open && len(body) > 0 {
			out = append(out, section.Section{
				Title: title,
				Text:  strings.TrimSpace(strings.Join(body, " ")),
				Page:  page,
			})
		}
	}

	for _, line := range lines {
		if IsHeading(s.Rules, line) {
			flush()
			title = line
			open = true
			body = nil
			continue
		}
		body = append(body, line)
	}
	flush()

	if !open {
		out = append(out, section.Section{
			Title: fmt.Sprintf("Page %d", page),
			Text:  strings.TrimSpace(strings.Join(lines, " ")),
			Page:  page,
		})
	}
	return out
}

// pageLines returns the trimmed non-empty lines of text.
func pageLines(text string) []string {
	var lines []string
	for _, ln := range strings.FieldsFunc(text, isLineBreak) {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\f', '\v', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
