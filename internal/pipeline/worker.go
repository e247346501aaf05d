package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Worker runs queued analysis jobs.
type Worker struct {
	analyzer *Analyzer
	stats    *Stats
	log      *slog.Logger
}

func NewWorker(analyzer *Analyzer, stats *Stats, log *slog.Logger) *Worker {
	return &Worker{
		analyzer: analyzer,
		stats:    stats,
		log:      log,
	}
}

// Process runs the full analysis for a job and records its outcome.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "documents", len(job.Documents))
	start := time.Now()

	req := Request{
		Documents: job.Files(),
		Persona:   job.Persona,
		Job:       job.Task,
		TopN:      job.TopN,
		OnPhase: func(p Phase) {
			job.SetStatus(JobStatus(p), string(p))
		},
		OnDocument: func(doc string, err error) {
			job.IncrDocumentsProcessed()
			if err != nil {
				job.AddError(err.Error())
			}
		},
		OnPersona: job.SetPersona,
	}

	out, err := w.analyzer.Analyze(ctx, req)
	job.SetSections(out.Sections)

	status := StatusCompleted
	switch {
	case err != nil:
		status = StatusFailed
		phase := string(PhaseExtracting)
		if !errors.Is(err, ErrNoSections) {
			phase = "cancelled"
		}
		job.Fail(phase, err)
		log.Warn("analysis failed", "error", err, "failures", len(out.Failures))
	case len(out.Failures) > 0:
		status = StatusPartial
		job.Finish(status, out.Result)
		log.Info("analysis finished with skipped content", "sections", out.Sections, "failures", len(out.Failures))
	default:
		job.Finish(status, out.Result)
		log.Info("analysis complete", "sections", out.Sections)
	}

	if w.stats != nil {
		w.stats.Record(time.Since(start), status)
	}
}
