package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/report"
)

func TestNewJob(t *testing.T) {
	docs := []Document{{Name: "a.pdf", Data: []byte("x")}, {Name: "b.txt", Data: []byte("y")}}
	job := NewJob(docs, persona.Persona{Role: "Researcher"}, persona.Job{Task: "review"}, 3)

	if job.ID == "" {
		t.Fatal("expected a job ID")
	}
	if other := NewJob(docs, persona.Persona{}, persona.Job{}, 0); other.ID == job.ID {
		t.Errorf("expected unique job IDs, got %q twice", job.ID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	snap := job.Snapshot()
	if snap.Progress.TotalDocuments != 2 {
		t.Errorf("expected 2 total documents, got %d", snap.Progress.TotalDocuments)
	}
	if len(snap.Documents) != 2 || snap.Documents[1] != "b.txt" {
		t.Errorf("unexpected documents %q", snap.Documents)
	}
	if snap.Persona != "Researcher" || snap.Task != "review" {
		t.Errorf("unexpected persona/task %q/%q", snap.Persona, snap.Task)
	}
	if len(job.Files()) != 2 {
		t.Errorf("expected files retained until finished")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusExtracting, "extracting"},
		{StatusRanking, "ranking"},
		{StatusRefining, "refining"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
		if job.Status.Done() {
			t.Errorf("status %q should not be terminal", tr.status)
		}
	}
}

func TestJob_Finish(t *testing.T) {
	job := NewJob([]Document{{Name: "a.txt", Data: []byte("x")}}, persona.Persona{}, persona.Job{}, 0)
	if res, err := job.Result(); res != nil || err != nil {
		t.Fatalf("expected no result while running, got %v, %v", res, err)
	}

	job.Finish(StatusPartial, report.Result{Metadata: report.Metadata{Persona: "Reader"}})

	res, err := job.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || res.Metadata.Persona != "Reader" {
		t.Fatalf("unexpected result %+v", res)
	}
	if job.Status != StatusPartial || !job.Status.Done() {
		t.Errorf("expected terminal partial status, got %q", job.Status)
	}
	if job.Files() != nil {
		t.Error("expected uploads released after finish")
	}
}

func TestJob_Fail(t *testing.T) {
	job := &Job{ID: "test-fail", Status: StatusExtracting, UpdatedAt: time.Now()}
	job.Fail("extracting", ErrNoSections)

	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
	_, err := job.Result()
	if !errors.Is(err, ErrNoSections) {
		t.Errorf("expected ErrNoSections, got %v", err)
	}
	if snap := job.Snapshot(); len(snap.Progress.Errors) != 1 {
		t.Errorf("expected failure recorded in errors, got %q", snap.Progress.Errors)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("a.pdf page 3: bad font")
	job.AddError("b.pdf: unsupported")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "a.pdf page 3: bad font" {
		t.Errorf("expected first error %q, got %q", "a.pdf page 3: bad font", snap.Progress.Errors[0])
	}
}

func TestJob_Counters(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrDocumentsProcessed()
	job.IncrDocumentsProcessed()
	job.SetSections(42)

	snap := job.Snapshot()
	if snap.Progress.DocumentsProcessed != 2 {
		t.Errorf("expected 2 documents processed, got %d", snap.Progress.DocumentsProcessed)
	}
	if snap.Progress.Sections != 42 {
		t.Errorf("expected 42 sections, got %d", snap.Progress.Sections)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(time.Minute)
	stale := time.Now().Add(-2 * time.Minute)

	store.Put(&Job{ID: "old", Status: StatusCompleted, UpdatedAt: stale})
	store.Put(&Job{ID: "stuck", Status: StatusExtracting, UpdatedAt: stale})
	store.Put(&Job{ID: "new", Status: StatusFailed, UpdatedAt: time.Now()})

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("stuck") == nil {
		t.Error("expected running job to survive cleanup")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestJob_SetPersona(t *testing.T) {
	job := NewJob(nil, persona.Persona{}, persona.Job{}, 0)
	job.SetPersona(persona.Persona{Role: "Student", Description: "first year"}, persona.Job{Task: "revise"})

	snap := job.Snapshot()
	if snap.Persona != "Student" {
		t.Errorf("persona = %q, want Student", snap.Persona)
	}
	if snap.Task != "revise" {
		t.Errorf("task = %q, want revise", snap.Task)
	}
}
