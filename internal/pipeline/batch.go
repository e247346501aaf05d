package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/report"
)

// Collection is an input file describing documents plus who reads them and why.
type Collection struct {
	Documents []CollectionDocument `json:"documents" yaml:"documents" validate:"required,min=1,dive"`
	Persona   persona.Persona      `json:"persona" yaml:"persona"`
	Job       persona.Job          `json:"job_to_be_done" yaml:"job_to_be_done"`
}

// CollectionDocument names one document, relative to the collection's directory.
type CollectionDocument struct {
	Filename string `json:"filename" yaml:"filename" validate:"required"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
}

var validate = validator.New()

// LoadCollection reads a JSON or YAML collection file and validates it.
func LoadCollection(path string) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Collection{}, err
	}

	var c Collection
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		err = json.Unmarshal(data, &c)
	}
	if err != nil {
		return Collection{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if err := validate.Struct(c); err != nil {
		return Collection{}, fmt.Errorf("invalid collection %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// Request turns the collection into an analysis request with documents
// resolved against dir.
func (c Collection) Request(dir string) Request {
	docs := make([]Document, len(c.Documents))
	for i, d := range c.Documents {
		docs[i] = Document{Name: d.Filename, Path: filepath.Join(dir, d.Filename)}
	}
	return Request{Documents: docs, Persona: c.Persona, Job: c.Job}
}

// Summary counts what a directory run did.
type Summary struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Outputs   []string `json:"outputs"`
}

// Batch processes every collection file in InputDir and writes one result per
// collection to OutputDir. A bad collection is logged and skipped.
type Batch struct {
	Analyzer  *Analyzer
	InputDir  string
	OutputDir string
	Log       *slog.Logger
}

// collectionExts are the file types Batch treats as collections.
var collectionExts = []string{".json", ".yaml", ".yml"}

func (b *Batch) Run(ctx context.Context) (Summary, error) {
	paths, err := listFiles(b.InputDir, func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		// Skip results from an earlier run sharing the directory.
		return slices.Contains(collectionExts, ext) && !strings.HasSuffix(name, "_output.json")
	})
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	outputs := newOutputNames(b.OutputDir)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		log := b.Log.With("collection", filepath.Base(path))

		c, err := LoadCollection(path)
		if err != nil {
			log.Warn("skipping collection", "error", err)
			sum.Skipped++
			continue
		}

		out, err := b.Analyzer.Analyze(ctx, c.Request(filepath.Dir(path)))
		if err := finish(ctx, log, out, err, outputs.claim(log, path), &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// Auto treats every supported document in InputDir as its own collection,
// with persona and job left for the detector.
type Auto struct {
	Analyzer  *Analyzer
	InputDir  string
	OutputDir string
	Log       *slog.Logger
}

func (a *Auto) Run(ctx context.Context) (Summary, error) {
	paths, err := listFiles(a.InputDir, parser.IsSupportedExtension)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	outputs := newOutputNames(a.OutputDir)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		name := filepath.Base(path)
		log := a.Log.With("collection", name)

		req := Request{Documents: []Document{{Name: name, Path: path}}}
		out, err := a.Analyzer.Analyze(ctx, req)
		if err := finish(ctx, log, out, err, outputs.claim(log, name), &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// outputNames hands out result paths for one run. Inputs sharing a stem, such
// as notes.md and notes.txt, would otherwise write the same result file.
type outputNames struct {
	dir  string
	used map[string]bool
}

func newOutputNames(dir string) *outputNames {
	return &outputNames{dir: dir, used: make(map[string]bool)}
}

// claim returns the result path for source: <stem>_output.json, or
// <stem>_<ext>_output.json when an earlier input in the run took the first.
func (o *outputNames) claim(log *slog.Logger, source string) string {
	base := filepath.Base(source)
	name := report.OutputName(base)
	if o.used[name] {
		alt := report.OutputName(strings.ReplaceAll(base, ".", "_"))
		for n := 2; o.used[alt]; n++ {
			alt = report.OutputName(fmt.Sprintf("%s_%d", strings.ReplaceAll(base, ".", "_"), n))
		}
		log.Warn("output name already used in this run", "output", name, "renamed", alt)
		name = alt
	}
	o.used[name] = true
	return filepath.Join(o.dir, name)
}

// finish writes a successful outcome and updates sum. It returns an error
// only when the run must stop.
func finish(ctx context.Context, log *slog.Logger, out Outcome, err error, dest string, sum *Summary) error {
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrNoSections) {
			log.Warn("no sections extracted, no output written", "failures", len(out.Failures))
		} else {
			log.Error("analysis failed", "error", err)
		}
		sum.Skipped++
		return nil
	}

	if err := report.WriteFile(dest, out.Result); err != nil {
		log.Error("write result failed", "error", err)
		sum.Skipped++
		return nil
	}
	log.Info("processed collection",
		"sections", out.Sections,
		"skipped", len(out.Failures),
		"output", dest,
	)
	sum.Processed++
	sum.Outputs = append(sum.Outputs, dest)
	return nil
}

// listFiles returns the regular files in dir accepted by keep, sorted by name.
func listFiles(dir string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !keep(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
