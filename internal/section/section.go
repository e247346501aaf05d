package section

// Page is the raw text of one document page.
type Page struct {
	Number int    // 1-based page number
	Text   string // Plain text as returned by the extractor
}

// Section is a titled span of a document's text, scoped to the page where it begins.
type Section struct {
	Title    string // Detected heading or "Page N" fallback
	Text     string // Body text following the heading, lines joined by single spaces
	Page     int    // 1-based page on which the section begins
	Document string // Source document identifier, set by the caller
}

// WithDocument returns a copy of s attributed to doc.
func (s Section) WithDocument(doc string) Section {
	s.Document = doc
	return s
}

// Scored is a Section carrying its combined relevance score in [0,1].
type Scored struct {
	Section
	Score float64
}

// Ranked is a Scored section carrying its 1-based importance rank.
type Ranked struct {
	Scored
	Rank int
}

// Excerpt is the condensed text of one top-ranked section.
type Excerpt struct {
	Document    string
	RefinedText string
	Page        int
}

// Attribute returns copies of sections attributed to doc.
func Attribute(sections []Section, doc string) []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = s.WithDocument(doc)
	}
	return out
}
