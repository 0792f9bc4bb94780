package pipeline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docstruct/internal/analysis"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusDetecting  JobStatus = "detecting"
	StatusChunking   JobStatus = "chunking"
	StatusMerging    JobStatus = "merging"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData   []byte
	options    analysis.Options
	optionsKey string
	force      bool
	result   *analysis.Result
	errors   []string
}

// Progress counts what the analysis found so far.
type Progress struct {
	Sections int      `json:"sections"`
	Chunks   int      `json:"chunks"`
	Captions int      `json:"captions"`
	Tables   int      `json:"tables"`
	Pages    int      `json:"pages"`
	Errors   []string `json:"errors"`
}

// NewJob creates a queued job for an uploaded file. Force disables the
// duplicate check.
func NewJob(filename, title string, data []byte, opts analysis.Options, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:         uuid.NewString(),
		Status:     StatusQueued,
		Phase:      "queued",
		Filename:   filename,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
		fileData:   data,
		options:    opts,
		optionsKey: fingerprintOptions(opts),
		force:      force,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// FindDuplicate returns a completed job, other than exclude, that analyzed the
// same text with the same options.
func (s *JobStore) FindDuplicate(hash, optionsKey, exclude string) *Job {
	if hash == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if id == exclude {
			continue
		}
		job.mu.Lock()
		match := job.ContentHash == hash && job.optionsKey == optionsKey && job.Status == StatusCompleted
		job.mu.Unlock()
		if match {
			return job
		}
	}
	return nil
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the parsed text and derives DocID from it.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	if len(hash) >= 16 {
		j.DocID = hash[:16]
	} else {
		j.DocID = hash
	}
	j.UpdatedAt = time.Now()
}

// MarkDuplicate finishes the job as a duplicate of another.
func (j *Job) MarkDuplicate(otherID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DuplicateOf = otherID
	j.Status = StatusDupSkipped
	j.Phase = "dedup"
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// SetResult stores the analysis and fills progress counters from it.
func (j *Job) SetResult(res *analysis.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.Progress.Sections = len(res.Sections)
	j.Progress.Chunks = len(res.Chunks)
	j.Progress.Captions = len(res.Captions)
	j.Progress.Tables = len(res.Tables)
	j.Progress.Pages = res.Pages
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Result returns the analysis, or nil before the job completes.
func (j *Job) Result() *analysis.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Options returns the analysis options the job was submitted with.
func (j *Job) Options() analysis.Options {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.options
}

// OptionsKey returns the fingerprint of the job's analysis options.
func (j *Job) OptionsKey() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.optionsKey
}

// Force reports whether duplicate detection is disabled for this job.
func (j *Job) Force() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.force
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		DuplicateOf: j.DuplicateOf,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// fingerprintOptions hashes everything in opts that shapes an analysis result:
// chunking config, vocabularies, extra patterns and table fragments. Progress
// is ignored. A nil vocabulary list (all) and an empty one (none) differ.
func fingerprintOptions(opts analysis.Options) string {
	extra := make([]string, 0, len(opts.ExtraPatterns))
	for _, p := range opts.ExtraPatterns {
		expr := ""
		if p.Pattern != nil {
			expr = p.Pattern.String()
		}
		extra = append(extra, fmt.Sprintf("%s\x00%d\x00%s", p.Name, p.Level, expr))
	}
	b, err := json.Marshal(struct {
		Chunking     any      `json:"chunking"`
		Vocabularies []string `json:"vocabularies"`
		Extra        []string `json:"extra"`
		Fragments    any      `json:"fragments"`
	}{opts.Chunking, opts.Vocabularies, extra, opts.Fragments})
	if err != nil {
		// Unkeyable options never match another job.
		return uuid.NewString()
	}
	return ContentHashHex(b)
}
