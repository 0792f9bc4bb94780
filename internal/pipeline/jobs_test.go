package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docstruct/internal/analysis"
	"github.com/dgallion1/docstruct/internal/doctree"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	if ContentHashHex([]byte("aaa")) == ContentHashHex([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("paper.txt", "Trial", []byte("x"), analysis.DefaultOptions(), true)
	if len(job.ID) != 36 {
		t.Errorf("expected a UUID job id, got %q", job.ID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected queued, got %q", job.Status)
	}
	if !job.Force() {
		t.Error("expected force to be kept")
	}
	if string(job.FileData()) != "x" {
		t.Errorf("expected file data to be kept, got %q", job.FileData())
	}
	if other := NewJob("paper.txt", "", nil, analysis.Options{}, false); other.ID == job.ID {
		t.Error("expected unique job ids")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{ID: "test-1", Status: StatusQueued, Phase: "queued", UpdatedAt: time.Now()}

	for _, st := range []JobStatus{StatusParsing, StatusDetecting, StatusChunking, StatusMerging, StatusCompleted} {
		before := job.UpdatedAt
		time.Sleep(time.Millisecond)
		job.SetStatus(st, string(st))

		if job.Status != st {
			t.Errorf("expected status %q, got %q", st, job.Status)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", st)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	tests := map[JobStatus]bool{
		StatusQueued:     false,
		StatusParsing:    false,
		StatusDetecting:  false,
		StatusChunking:   false,
		StatusMerging:    false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusDupSkipped: true,
	}
	for st, want := range tests {
		if got := st.Done(); got != want {
			t.Errorf("%s.Done() = %v, want %v", st, got, want)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("table 3: no main fragment")
	job.AddError("analyze: context canceled")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "table 3: no main fragment" {
		t.Errorf("unexpected first error %q", snap.Progress.Errors[0])
	}
}

func TestJob_SetContentHash(t *testing.T) {
	job := &Job{ID: "hash-test"}
	h := ContentHashHex([]byte("abc"))
	job.SetContentHash(h)
	if job.ContentHash != h {
		t.Errorf("expected hash %q, got %q", h, job.ContentHash)
	}
	if job.DocID != h[:16] {
		t.Errorf("expected doc id %q, got %q", h[:16], job.DocID)
	}
}

func TestJob_SetResult(t *testing.T) {
	job := &Job{ID: "res-test", fileData: []byte("raw")}
	res := &analysis.Result{
		Sections: make([]doctree.Section, 3),
		Chunks:   make([]doctree.Chunk, 5),
		Captions: make([]doctree.TableCaption, 2),
		Tables:   make([]doctree.MultiPageTable, 1),
		Pages:    4,
	}
	job.SetResult(res)

	snap := job.Snapshot()
	want := Progress{Sections: 3, Chunks: 5, Captions: 2, Tables: 1, Pages: 4}
	if snap.Progress.Sections != want.Sections || snap.Progress.Chunks != want.Chunks ||
		snap.Progress.Captions != want.Captions || snap.Progress.Tables != want.Tables || snap.Progress.Pages != want.Pages {
		t.Errorf("expected progress %+v, got %+v", want, snap.Progress)
	}
	if job.Result() != res {
		t.Error("expected result to be stored")
	}
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_MarkDuplicate(t *testing.T) {
	job := &Job{ID: "dup", fileData: []byte("raw")}
	job.MarkDuplicate("orig")
	snap := job.Snapshot()
	if snap.Status != StatusDupSkipped || snap.DuplicateOf != "orig" {
		t.Errorf("expected duplicate of orig, got %+v", snap)
	}
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJob_SnapshotIsolated(t *testing.T) {
	job := &Job{ID: "iso"}
	job.AddError("first")
	snap := job.Snapshot()
	snap.Progress.Errors[0] = "changed"
	if job.Snapshot().Progress.Errors[0] != "first" {
		t.Error("expected snapshot errors to be a copy")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	store.Put(&Job{ID: "store-1", UpdatedAt: time.Now()})

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

func TestJobStore_FindDuplicate(t *testing.T) {
	store := NewJobStore(time.Hour)
	done := &Job{ID: "done", ContentHash: "h1", optionsKey: "k1", Status: StatusCompleted}
	running := &Job{ID: "running", ContentHash: "h2", optionsKey: "k1", Status: StatusChunking}
	store.Put(done)
	store.Put(running)

	if got := store.FindDuplicate("h1", "k1", "other"); got != done {
		t.Errorf("expected completed job, got %+v", got)
	}
	if got := store.FindDuplicate("h1", "k2", "other"); got != nil {
		t.Error("expected different options not to count as a duplicate")
	}
	if got := store.FindDuplicate("h1", "k1", "done"); got != nil {
		t.Error("expected the excluded job to be skipped")
	}
	if got := store.FindDuplicate("h2", "k1", ""); got != nil {
		t.Error("expected an unfinished job not to count as a duplicate")
	}
	if got := store.FindDuplicate("", "k1", ""); got != nil {
		t.Error("expected no match for an empty hash")
	}
}

func TestFingerprintOptions(t *testing.T) {
	base := fingerprintOptions(analysis.DefaultOptions())
	if base != fingerprintOptions(analysis.DefaultOptions()) {
		t.Fatal("expected equal options to share a fingerprint")
	}

	smaller := analysis.DefaultOptions()
	smaller.Chunking.MaxChunkSize = 5
	none := analysis.DefaultOptions()
	none.Vocabularies = []string{}
	withFrags := analysis.DefaultOptions()
	withFrags.Fragments = []doctree.Table{{TableNumber: "1", PageNumber: 2}}
	progress := analysis.DefaultOptions()
	progress.Progress = func(analysis.Phase) {}

	for name, o := range map[string]analysis.Options{"chunking": smaller, "vocabularies": none, "fragments": withFrags} {
		if fingerprintOptions(o) == base {
			t.Errorf("%s: expected a different fingerprint", name)
		}
	}
	if fingerprintOptions(progress) != base {
		t.Error("expected the progress callback to be ignored")
	}
	if job := NewJob("a.txt", "", nil, analysis.DefaultOptions(), false); job.OptionsKey() != base {
		t.Error("expected NewJob to record the options fingerprint")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)
	store.Put(&Job{ID: "old", UpdatedAt: time.Now()})

	time.Sleep(100 * time.Millisecond)

	store.Put(&Job{ID: "new", UpdatedAt: time.Now()})
	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
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
