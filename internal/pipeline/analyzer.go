package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/refine"
	"github.com/dgallion1/docrank/internal/relevance"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/dgallion1/docrank/internal/section"
	"github.com/dgallion1/docrank/internal/segment"
)

// ErrNoSections means no document in a request produced a single section.
var ErrNoSections = errors.New("no sections extracted")

// ExtractionError records a document or page that could not be read.
// Page 0 means the whole document failed.
type ExtractionError struct {
	Document string
	Page     int
	Err      error
}

func (e ExtractionError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("%s: %v", e.Document, e.Err)
	}
	return fmt.Sprintf("%s page %d: %v", e.Document, e.Page, e.Err)
}

func (e ExtractionError) Unwrap() error { return e.Err }

// Document is one input file. Data wins over Path when both are set.
type Document struct {
	Name string
	Path string
	Data []byte
}

func (d Document) load() ([]byte, error) {
	if d.Data != nil || d.Path == "" {
		return d.Data, nil
	}
	return os.ReadFile(d.Path)
}

// Phase names a stage of an analysis, reported through Request.OnPhase.
type Phase string

const (
	PhaseExtracting Phase = "extracting"
	PhaseRanking    Phase = "ranking"
	PhaseRefining   Phase = "refining"
)

// Request is one document collection to analyze.
type Request struct {
	Documents []Document
	Persona   persona.Persona
	Job       persona.Job
	// TopN overrides the analyzer default when positive.
	TopN int

	OnPhase    func(Phase)
	OnDocument func(doc string, err error)
	// OnPersona receives the persona and job used for ranking, after any
	// detected values were filled in.
	OnPersona func(persona.Persona, persona.Job)
}

// Outcome is a completed analysis plus the failures that were skipped.
type Outcome struct {
	Result   report.Result
	Failures []ExtractionError
	Sections int
}

// Analyzer runs extract, segment, rank, refine and report for a collection.
type Analyzer struct {
	Segmenter *segment.Segmenter
	Ranker    rank.Ranker
	Refiner   refine.Refiner
	// Detector fills a missing role or task. Nil disables detection.
	Detector persona.Detector

	Parser      parser.Options
	Concurrency int
	TopN        int

	Now func() time.Time
	Log *slog.Logger
}

// NewAnalyzer builds an Analyzer from cfg.
func NewAnalyzer(cfg config.Config, log *slog.Logger) *Analyzer {
	a := &Analyzer{
		Segmenter:   segment.New(),
		Ranker:      rank.New(relevance.NewScorer(cfg.Weights)),
		Refiner:     refine.New(),
		Parser:      parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext},
		Concurrency: cfg.MaxConcurrentExtract,
		TopN:        cfg.TopN,
		Now:         time.Now,
		Log:         log,
	}
	if cfg.AutoDetectPersona {
		a.Detector = persona.NewKeywordDetector()
	}
	return a
}

// Analyze processes every document and assembles the result. Unreadable
// documents and pages are skipped and reported in Outcome.Failures; the only
// errors returned are ErrNoSections and context cancellation.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Outcome, error) {
	notify(req.OnPhase, PhaseExtracting)
	sections, failures, err := a.Extract(ctx, req.Documents, req.OnDocument)
	out := Outcome{Failures: failures, Sections: len(sections)}
	if err != nil {
		return out, err
	}
	if len(sections) == 0 {
		return out, fmt.Errorf("%w from %d documents", ErrNoSections, len(req.Documents))
	}

	p, j := req.Persona, req.Job
	if a.Detector != nil && !persona.Complete(p, j) {
		dp, dj := a.Detector.Detect(joinText(sections))
		p, j = persona.Fill(p, j, dp, dj)
		a.logger().Debug("filled persona", "role", p.Role, "task", j.Task)
	}
	if req.OnPersona != nil {
		req.OnPersona(p, j)
	}

	notify(req.OnPhase, PhaseRanking)
	ranked := a.Ranker.Rank(sections, p, j)
	topN := req.TopN
	if topN <= 0 {
		topN = a.TopN
	}
	top := rank.Top(ranked, topN)

	notify(req.OnPhase, PhaseRefining)
	excerpts := a.Refiner.Refine(top, p, j, len(top))

	names := make([]string, len(req.Documents))
	for i, d := range req.Documents {
		names[i] = d.Name
	}
	out.Result = report.Build(names, p, j, top, excerpts, a.now())
	return out, nil
}

// Extract segments every document concurrently. Sections come back in
// document order, then page order, regardless of completion order.
func (a *Analyzer) Extract(ctx context.Context, docs []Document, onDoc func(string, error)) ([]section.Section, []ExtractionError, error) {
	type slot struct {
		sections []section.Section
		failures []ExtractionError
	}
	slots := make([]slot, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.Concurrency, 1))
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			secs, fails := a.extractOne(doc)
			slots[i] = slot{sections: secs, failures: fails}
			if onDoc != nil {
				var err error
				if len(fails) > 0 {
					err = errors.Join(asErrors(fails)...)
				}
				onDoc(doc.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		sections []section.Section
		failures []ExtractionError
	)
	for _, s := range slots {
		sections = append(sections, s.sections...)
		failures = append(failures, s.failures...)
	}
	return sections, failures, nil
}

func (a *Analyzer) extractOne(doc Document) ([]section.Section, []ExtractionError) {
	log := a.logger().With("document", doc.Name)
	fail := func(page int, err error) []ExtractionError {
		log.Warn("extraction failed", "page", page, "error", err)
		return []ExtractionError{{Document: doc.Name, Page: page, Err: err}}
	}

	data, err := doc.load()
	if err != nil {
		return nil, fail(0, fmt.Errorf("read: %w", err))
	}
	src, err := parser.ForFile(doc.Name, data, a.Parser)
	if err != nil {
		return nil, fail(0, err)
	}
	defer src.Close()

	res, err := a.Segmenter.Segment(src)
	if err != nil {
		return nil, fail(0, err)
	}

	var failures []ExtractionError
	for _, gap := range res.Gaps {
		failures = append(failures, fail(gap.Page, gap.Err)...)
	}
	log.Debug("segmented document", "sections", len(res.Sections), "skipped_pages", len(res.Gaps))
	return section.Attribute(res.Sections, doc.Name), failures
}

func (a *Analyzer) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Log
}

func notify(fn func(Phase), p Phase) {
	if fn != nil {
		fn(p)
	}
}

func joinText(sections []section.Section) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

func asErrors(fails []ExtractionError) []error {
	errs := make([]error, len(fails))
	for i, f := range fails {
		errs[i] = f
	}
	return errs
}
