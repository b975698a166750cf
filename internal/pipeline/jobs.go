package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"
)

// JobStatus represents the state of a reload job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusScanning   JobStatus = "scanning"
	StatusExtracting JobStatus = "extracting"
	StatusChunking   JobStatus = "chunking"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Reload triggers.
const (
	TriggerStartup = "startup"
	TriggerUpload  = "upload"
	TriggerDelete  = "delete"
	TriggerManual  = "manual"
	TriggerWatch   = "watch"
)

// Job tracks one full rebuild of the index.
type Job struct {
	mu sync.Mutex

	ID      string    `json:"job_id"`
	Trigger string    `json:"trigger"`
	Status  JobStatus `json:"status"`
	Phase   string    `json:"phase"`

	Progress Progress `json:"progress"`

	Generation uint64    `json:"generation"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Internal: not serialized.
	files  []FileReport
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	FilesTotal     int      `json:"files_total"`
	FilesProcessed int      `json:"files_processed"`
	ChunksEmitted  int      `json:"chunks_emitted"`
	ChunksRejected int      `json:"chunks_rejected"`
	Errors         []string `json:"errors"`
}

// FileReport is the outcome for one source file.
type FileReport struct {
	Path        string `json:"path"`
	Category    string `json:"category"`
	ContentHash string `json:"content_hash,omitempty"`
	Chunks      int    `json:"chunks"`
	Rejected    int    `json:"rejected"`
	Error       string `json:"error,omitempty"`
}

func NewJob(id, trigger string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Trigger:   trigger,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore keeps recent reload jobs in memory with TTL eviction.
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

// Recent returns snapshots of stored jobs, newest first.
func (s *JobStore) Recent() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	out := make([]JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	slices.SortFunc(out, func(a, b JobSnapshot) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
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
	switch status {
	case StatusCompleted, StatusPartial, StatusFailed:
		j.FinishedAt = j.UpdatedAt
	}
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetFilesTotal records how many source files the scan found.
func (j *Job) SetFilesTotal(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesTotal = n
	j.UpdatedAt = time.Now()
}

// IncrFilesProcessed atomically increments files processed.
func (j *Job) IncrFilesProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesProcessed++
	j.UpdatedAt = time.Now()
}

// AddFile records the outcome for one file and folds its counts into Progress.
func (j *Job) AddFile(r FileReport) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.files = append(j.files, r)
	j.Progress.ChunksEmitted += r.Chunks
	j.Progress.ChunksRejected += r.Rejected
	j.UpdatedAt = time.Now()
}

// SetGeneration records the index generation the job published.
func (j *Job) SetGeneration(g uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Generation = g
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string       `json:"job_id"`
	Trigger    string       `json:"trigger"`
	Status     JobStatus    `json:"status"`
	Phase      string       `json:"phase"`
	Progress   Progress     `json:"progress"`
	Files      []FileReport `json:"files"`
	Generation uint64       `json:"generation"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DurationMs int64        `json:"duration_ms"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := slices.Clone(j.Progress.Errors)
	if errs == nil {
		errs = []string{}
	}
	files := slices.Clone(j.files)
	if files == nil {
		files = []FileReport{}
	}
	var duration int64
	if !j.FinishedAt.IsZero() {
		duration = j.FinishedAt.Sub(j.CreatedAt).Milliseconds()
	}
	return JobSnapshot{
		ID:      j.ID,
		Trigger: j.Trigger,
		Status:  j.Status,
		Phase:   j.Phase,
		Progress: Progress{
			FilesTotal:     j.Progress.FilesTotal,
			FilesProcessed: j.Progress.FilesProcessed,
			ChunksEmitted:  j.Progress.ChunksEmitted,
			ChunksRejected: j.Progress.ChunksRejected,
			Errors:         errs,
		},
		Files:      files,
		Generation: j.Generation,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.FinishedAt,
		DurationMs: duration,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
