package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/docstruct/internal/analysis"
	"github.com/dgallion1/docstruct/internal/chunker"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/tables"
)

const paper = `1. Introduction
Heart failure remains a leading cause of admission.

2. Methods
Patients were randomized to the intervention or usual care.
Table 1: Baseline characteristics

3. Results
Mortality fell by a third.
Table 1 (continued)
`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	opts.Chunking = chunker.Config{MaxChunkSize: 50, RespectSections: true}
	return opts
}

func newTestWorker() (*Worker, *JobStore, *LatencyStats) {
	jobs := NewJobStore(time.Hour)
	stats := NewLatencyStats(time.Hour)
	return NewWorker(jobs, stats, discard(), parser.Options{}), jobs, stats
}

func TestWorker_ProcessText(t *testing.T) {
	w, jobs, stats := newTestWorker()
	job := NewJob("paper.txt", "", []byte(paper), testOptions(), false)
	jobs.Put(job)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Sections != 3 {
		t.Errorf("expected 3 sections, got %d", snap.Progress.Sections)
	}
	if snap.Progress.Captions != 2 {
		t.Errorf("expected 2 captions, got %d", snap.Progress.Captions)
	}
	if snap.Progress.Chunks == 0 {
		t.Error("expected chunks")
	}
	if snap.DocID == "" {
		t.Error("expected a doc id derived from the content hash")
	}
	res := job.Result()
	if res == nil || res.Title != "paper" {
		t.Errorf("expected title from filename, got %+v", res)
	}
	if res.PaperType != doctree.PaperResearch {
		t.Errorf("expected research paper, got %s", res.PaperType)
	}
	if stats.Snapshot().Count != 1 {
		t.Errorf("expected one latency sample, got %d", stats.Snapshot().Count)
	}
	phases := stats.Phases()
	for _, ph := range []string{"parsing", "detecting", "chunking"} {
		if phases[ph].Count != 1 {
			t.Errorf("expected one %s sample, got %+v", ph, phases)
		}
	}
	if _, ok := phases["merging"]; ok {
		t.Error("expected no merging sample without fragments")
	}
}

func TestWorker_TitleOverride(t *testing.T) {
	w, jobs, _ := newTestWorker()
	job := NewJob("paper.txt", "A Trial", []byte(paper), testOptions(), false)
	jobs.Put(job)
	w.Process(context.Background(), job)
	if res := job.Result(); res == nil || res.Title != "A Trial" {
		t.Errorf("expected title override, got %+v", res)
	}
}

func TestWorker_UnsupportedFormat(t *testing.T) {
	w, jobs, _ := newTestWorker()
	job := NewJob("paper.xyz", "", []byte(paper), testOptions(), false)
	jobs.Put(job)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected failure while parsing, got %s/%s", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected one error, got %v", snap.Progress.Errors)
	}
}

func TestWorker_Duplicate(t *testing.T) {
	w, jobs, _ := newTestWorker()
	first := NewJob("a.txt", "", []byte(paper), testOptions(), false)
	second := NewJob("b.txt", "", []byte(paper), testOptions(), false)
	forced := NewJob("c.txt", "", []byte(paper), testOptions(), true)
	for _, j := range []*Job{first, second, forced} {
		jobs.Put(j)
		w.Process(context.Background(), j)
	}

	if s := first.Snapshot(); s.Status != StatusCompleted {
		t.Fatalf("expected first job completed, got %s", s.Status)
	}
	if s := second.Snapshot(); s.Status != StatusDupSkipped || s.DuplicateOf != first.ID {
		t.Errorf("expected second job skipped as duplicate of %s, got %+v", first.ID, s)
	}
	if s := forced.Snapshot(); s.Status != StatusCompleted {
		t.Errorf("expected forced job to run, got %s", s.Status)
	}
}

func TestWorker_DuplicateNeedsSameOptions(t *testing.T) {
	w, jobs, _ := newTestWorker()
	first := NewJob("a.txt", "", []byte(paper), testOptions(), false)
	rechunk := testOptions()
	rechunk.Chunking.MaxChunkSize = 5
	rechunk.Chunking.RespectSections = false
	second := NewJob("b.txt", "", []byte(paper), rechunk, false)
	third := NewJob("c.txt", "", []byte(paper), rechunk, false)
	for _, j := range []*Job{first, second, third} {
		jobs.Put(j)
		w.Process(context.Background(), j)
	}

	s2 := second.Snapshot()
	if s2.Status != StatusCompleted || s2.DuplicateOf != "" {
		t.Fatalf("expected new chunking config to re-run analysis, got %+v", s2)
	}
	if s2.DocID != first.Snapshot().DocID {
		t.Errorf("expected the same document id for the same text")
	}
	if len(second.Result().Chunks) <= len(first.Result().Chunks) {
		t.Errorf("expected smaller chunks to produce more of them: %d vs %d",
			len(second.Result().Chunks), len(first.Result().Chunks))
	}
	if s3 := third.Snapshot(); s3.Status != StatusDupSkipped || s3.DuplicateOf != second.ID {
		t.Errorf("expected third job to duplicate the second, got %+v", s3)
	}
}

func TestWorker_Cancelled(t *testing.T) {
	w, jobs, _ := newTestWorker()
	job := NewJob("paper.txt", "", []byte(paper), testOptions(), false)
	jobs.Put(job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Process(ctx, job)

	if s := job.Snapshot(); s.Status != StatusFailed {
		t.Errorf("expected failure on a cancelled context, got %s", s.Status)
	}
}

func TestWorker_MergeWarningsRecorded(t *testing.T) {
	w, jobs, _ := newTestWorker()
	opts := testOptions()
	opts.Fragments = []doctree.Table{
		tables.NewFragment("5", 2, "Table 5 (continued)", [][]string{{"a"}}),
		tables.NewFragment("5", 3, "Table 5 (continued)", [][]string{{"b"}}),
	}
	job := NewJob("paper.txt", "", []byte(paper), opts, false)
	jobs.Put(job)
	w.Process(context.Background(), job)

	s := job.Snapshot()
	if s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", s.Status)
	}
	if len(s.Progress.Errors) != 1 {
		t.Errorf("expected the merge warning recorded, got %v", s.Progress.Errors)
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	o := NewOrchestrator(Settings{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}, discard())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("paper.md", "", []byte("# Methods\n\nWe did things.\n\n# Results\n\nThey worked.\n"), testOptions(), false)
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %s", job.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s := job.Snapshot(); s.Status != StatusCompleted || s.Progress.Sections != 2 {
		t.Errorf("expected completed with 2 sections, got %+v", s)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started: nothing drains the queue.
	o := NewOrchestrator(Settings{WorkerCount: 1, MaxQueueSize: 1}, discard())

	if err := o.Submit(NewJob("a.txt", "", nil, testOptions(), false)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	full := NewJob("b.txt", "", nil, testOptions(), false)
	err := o.Submit(full)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if s := full.Snapshot(); s.Status != StatusFailed {
		t.Errorf("expected rejected job marked failed, got %s", s.Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
