package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job represents an async operation (discover, migrate). The worker updates
// it under mu; readers outside the worker go through Snapshot.
type Job struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`   // "discover", "discover-multi", "migrate-sequential", "migrate-two-phase"
	Status     string     `json:"status"` // "running", "completed", "failed", "cancelled"
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Output     []string   `json:"output"`

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// AppendLog adds a log line to the job output.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = append(j.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (j *Job) LogsSince(offset int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if offset >= len(j.Output) {
		return nil
	}
	lines := make([]string, len(j.Output)-offset)
	copy(lines, j.Output[offset:])
	return lines
}

// Context is cancelled when the job is cancelled.
func (j *Job) Context() context.Context {
	return j.ctx
}

// JobView is a point-in-time copy of a Job, safe to encode.
type JobView struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Output     []string   `json:"output"`
}

// Snapshot copies the job under its lock.
func (j *Job) Snapshot() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	v := JobView{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		StartedAt: j.StartedAt,
		Error:     j.Error,
		Output:    make([]string, len(j.Output)),
	}
	copy(v.Output, j.Output)
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		v.FinishedAt = &t
	}
	return v
}

// ErrorMessage returns the failure message under the job lock.
func (j *Job) ErrorMessage() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Error
}

// CurrentStatus returns the status under the job lock.
func (j *Job) CurrentStatus() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// Done reports whether the job has finished in any way.
func (j *Job) Done() bool {
	return j.CurrentStatus() != "running"
}

// Complete marks the job as completed.
func (j *Job) Complete() {
	j.finish("completed", "")
}

// Fail marks the job as failed with an error message.
func (j *Job) Fail(err string) {
	j.finish("failed", err)
}

// Cancel stops a running job. The worker observes it through Context.
func (j *Job) Cancel() {
	j.cancel()
	j.finish("cancelled", "cancelled by user")
}

func (j *Job) finish(status, err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != "running" {
		return
	}
	j.Status = status
	j.Error = err
	now := time.Now()
	j.FinishedAt = &now
}

// JobStore is an in-memory thread-safe store for jobs.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create adds a new job, assigning it a UUID.
func (s *JobStore) Create(jobType string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    "running",
		StartedAt: time.Now(),
		Output:    []string{},
		ctx:       ctx,
		cancel:    cancel,
	}
	s.jobs[j.ID] = j
	return j
}

// Get returns a job by ID.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// List returns all jobs, most recent first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		result = append(result, j)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].StartedAt.After(result[b].StartedAt)
	})
	return result
}
