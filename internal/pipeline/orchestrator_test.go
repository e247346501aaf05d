package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, mutate func(*config.Config)) *Orchestrator {
	t.Helper()
	cfg := config.Defaults()
	cfg.WorkerCount = 2
	if mutate != nil {
		mutate(&cfg)
	}
	return NewOrchestrator(cfg, newTestAnalyzer(), slog.New(slog.DiscardHandler))
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return job.Snapshot().Status.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return job.Snapshot()
}

func TestOrchestrator_Completes(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob(
		[]Document{{Name: "doc.txt", Data: []byte(scenarioText)}},
		persona.Persona{Role: "Researcher"},
		persona.Job{Task: "optimize systems"},
		0,
	)
	require.NoError(t, o.Submit(job))
	assert.Same(t, job, o.GetJob(job.ID))

	snap := waitDone(t, job)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 1, snap.Progress.DocumentsProcessed)
	assert.Equal(t, 2, snap.Progress.Sections)

	res, err := job.Result()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.ExtractedSections, 2)
	assert.Nil(t, job.Files(), "uploads released")

	require.Eventually(t, func() bool { return o.Stats().Completed == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, o.JobCount())
}

func TestOrchestrator_PartialAndFailed(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.Start(context.Background())
	defer o.Stop()

	partial := NewJob([]Document{
		{Name: "doc.txt", Data: []byte(scenarioText)},
		{Name: "scan.png", Data: []byte("png")},
	}, persona.Persona{Role: "Researcher"}, persona.Job{Task: "optimize"}, 1)
	failed := NewJob([]Document{
		{Name: "empty.txt", Data: []byte(" ")},
	}, persona.Persona{}, persona.Job{}, 0)

	require.NoError(t, o.Submit(partial))
	require.NoError(t, o.Submit(failed))

	snap := waitDone(t, partial)
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Len(t, snap.Progress.Errors, 1)
	res, err := partial.Result()
	require.NoError(t, err)
	assert.Len(t, res.ExtractedSections, 1, "per-job top n")

	snap = waitDone(t, failed)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, string(PhaseExtracting), snap.Phase)
	res, err = failed.Result()
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoSections)
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	o := newTestOrchestrator(t, func(c *config.Config) { c.MaxQueueSize = 1 })

	first := NewJob(nil, persona.Persona{}, persona.Job{}, 0)
	second := NewJob(nil, persona.Persona{}, persona.Job{}, 0)
	require.NoError(t, o.Submit(first))
	assert.Equal(t, 1, o.QueueDepth())

	err := o.Submit(second)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
	assert.Equal(t, 2, o.JobCount())
}

func TestOrchestrator_SnapshotShowsDetectedPersona(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob(
		[]Document{{Name: "doc.txt", Data: []byte(scenarioText)}},
		persona.Persona{Description: "systems group"},
		persona.Job{},
		0,
	)
	require.NoError(t, o.Submit(job))

	snap := waitDone(t, job)
	res, err := job.Result()
	require.NoError(t, err)
	assert.Equal(t, "Researcher", snap.Persona)
	assert.Equal(t, res.Metadata.Persona, snap.Persona)
	assert.Equal(t, res.Metadata.JobToBeDone, snap.Task)
	assert.NotEmpty(t, snap.Task)
}
