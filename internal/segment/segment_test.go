package segment

import (
	"errors"
	"testing"

	"github.com/dgallion1/docrank/internal/section"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pages    []string
	failing  map[int]error
	countErr error
}

func (f *fakeSource) PageCount() (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.pages), nil
}

func (f *fakeSource) PageText(n int) (string, error) {
	if err, ok := f.failing[n]; ok {
		return "", err
	}
	return f.pages[n-1], nil
}

const scenarioPage = "1. Introduction\nThis is a long sentence about optimizing systems for research purposes.\n2. Methods\nWe analyze the data."

func TestSegmentPages_NumberedHeadings(t *testing.T) {
	got := New().SegmentPages([]section.Page{{Number: 1, Text: scenarioPage}})

	require.Len(t, got, 2)
	assert.Equal(t, section.Section{
		Title: "1. Introduction",
		Text:  "This is a long sentence about optimizing systems for research purposes.",
		Page:  1,
	}, got[0])
	assert.Equal(t, section.Section{
		Title: "2. Methods",
		Text:  "We analyze the data.",
		Page:  1,
	}, got[1])
}

func TestSegmentPages_NoHeadingFallback(t *testing.T) {
	text := "just some lowercase text here.\nand a second line of it.\n\n   \nthird line."
	got := New().SegmentPages([]section.Page{{Number: 7, Text: text}})

	require.Len(t, got, 1)
	assert.Equal(t, "Page 7", got[0].Title)
	assert.Equal(t, "just some lowercase text here. and a second line of it. third line.", got[0].Text)
	assert.Equal(t, 7, got[0].Page)
}

func TestSegmentPages_HeadingWithEmptyBodyIsDropped(t *testing.T) {
	text := "OVERVIEW\nDETAILS\nthe details are described in this paragraph."
	got := New().SegmentPages([]section.Page{{Number: 1, Text: text}})

	require.Len(t, got, 1)
	assert.Equal(t, "DETAILS", got[0].Title)
}

func TestSegmentPages_TrailingHeadingIsDropped(t *testing.T) {
	text := "SUMMARY\nsome body text goes here.\nCLOSING"
	got := New().SegmentPages([]section.Page{{Number: 1, Text: text}})

	require.Len(t, got, 1)
	assert.Equal(t, "SUMMARY", got[0].Title)
}

func TestSegmentPages_OnlyHeadingsYieldsNothing(t *testing.T) {
	// Headings were found, so the page fallback does not apply.
	got := New().SegmentPages([]section.Page{{Number: 1, Text: "ONE\nTWO"}})
	assert.Empty(t, got)
}

func TestSegmentPages_PreambleBeforeFirstHeadingDiscarded(t *testing.T) {
	text := "a running header line.\nRESULTS\nthe results are good."
	got := New().SegmentPages([]section.Page{{Number: 1, Text: text}})

	require.Len(t, got, 1)
	assert.Equal(t, "RESULTS", got[0].Title)
	assert.Equal(t, "the results are good.", got[0].Text)
}

func TestSegmentPages_SectionsDoNotSpanPages(t *testing.T) {
	pages := []section.Page{
		{Number: 1, Text: "INTRO\nfirst page body."},
		{Number: 2, Text: "continued body without heading."},
	}
	got := New().SegmentPages(pages)

	require.Len(t, got, 2)
	assert.Equal(t, "INTRO", got[0].Title)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, "Page 2", got[1].Title)
	assert.Equal(t, 2, got[1].Page)
}

func TestSegmentPages_EmptyPage(t *testing.T) {
	assert.Empty(t, New().SegmentPages([]section.Page{{Number: 1, Text: "\n \n"}}))
	assert.Empty(t, New().SegmentPages(nil))
}

func TestSegmentPages_Idempotent(t *testing.T) {
	pages := []section.Page{{Number: 1, Text: scenarioPage}, {Number: 2, Text: "plain text only."}}
	s := New()
	assert.Equal(t, s.SegmentPages(pages), s.SegmentPages(pages))
}

func TestSegment_SkipsFailedPages(t *testing.T) {
	errBoom := errors.New("pdftotext exited 1")
	src := &fakeSource{
		pages:   []string{"PAGE ONE\nbody one.", "unused", "PAGE THREE\nbody three."},
		failing: map[int]error{2: errBoom},
	}

	res, err := New().Segment(src)
	require.NoError(t, err)

	require.Len(t, res.Sections, 2)
	assert.Equal(t, 1, res.Sections[0].Page)
	assert.Equal(t, 3, res.Sections[1].Page)

	require.Len(t, res.Gaps, 1)
	assert.Equal(t, 2, res.Gaps[0].Page)
	assert.ErrorIs(t, res.Gaps[0], errBoom)
	assert.Contains(t, res.Gaps[0].Error(), "page 2")
}

func TestSegment_PageCountFailure(t *testing.T) {
	src := &fakeSource{countErr: errors.New("not a pdf")}
	_, err := New().Segment(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count pages")
}

func TestSegment_MatchesSegmentPages(t *testing.T) {
	src := &fakeSource{pages: []string{scenarioPage}}
	res, err := New().Segment(src)
	require.NoError(t, err)
	assert.Equal(t, New().SegmentPages([]section.Page{{Number: 1, Text: scenarioPage}}), res.Sections)
	assert.Empty(t, res.Gaps)
}
