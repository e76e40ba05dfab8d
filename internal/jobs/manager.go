// Package jobs tracks conversion requests while they run and shortly after.
package jobs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the conversion job status.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// subscriberBuffer is the number of events a subscriber may lag behind before
// events are dropped for it.
const subscriberBuffer = 32

// Job represents one conversion request.
type Job struct {
	ID          string     `json:"id"`
	Endpoint    string     `json:"endpoint"`
	FileName    string     `json:"fileName"`
	InputSize   int64      `json:"inputSize"`
	OutputSize  int64      `json:"outputSize,omitempty"`
	FileID      string     `json:"fileId,omitempty"`
	Status      Status     `json:"status"`
	Progress    float64    `json:"progress"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Done reports whether the job has settled.
func (j Job) Done() bool {
	return j.Status == StatusComplete || j.Status == StatusError
}

// Duration is the time the job took, or has taken so far.
func (j Job) Duration() time.Duration {
	if j.CompletedAt != nil {
		return j.CompletedAt.Sub(j.CreatedAt)
	}
	return time.Since(j.CreatedAt)
}

// Manager holds the job registry and fans job updates out to subscribers.
type Manager struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	subs   map[int]chan Job
	nextID int
	logger *slog.Logger
}

// NewManager creates a new job manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		jobs:   make(map[string]*Job),
		subs:   make(map[int]chan Job),
		logger: logger.With("component", "jobs"),
	}
}

// Start registers a new processing job.
func (m *Manager) Start(endpoint, fileName string, size int64) Job {
	job := &Job{
		ID:        uuid.New().String(),
		Endpoint:  endpoint,
		FileName:  fileName,
		InputSize: size,
		Status:    StatusProcessing,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	m.publishLocked(*job)
	m.logger.Debug("job started", "job", job.ID, "endpoint", endpoint, "file", fileName)
	return *job
}

// Complete marks a job as finished with the stored output file.
func (m *Manager) Complete(id, fileID string, outputSize int64) (Job, bool) {
	return m.settle(id, func(job *Job) {
		job.Status = StatusComplete
		job.Progress = 100
		job.FileID = fileID
		job.OutputSize = outputSize
	})
}

// Fail marks a job as failed.
func (m *Manager) Fail(id, errMsg string) (Job, bool) {
	return m.settle(id, func(job *Job) {
		job.Status = StatusError
		job.Error = errMsg
	})
}

func (m *Manager) settle(id string, apply func(*Job)) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.Done() {
		return Job{}, false
	}
	apply(job)
	now := time.Now()
	job.CompletedAt = &now

	m.publishLocked(*job)
	m.logger.Debug("job settled", "job", id, "status", job.Status, "duration", job.Duration())
	return *job, true
}

// Get retrieves a job by ID.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Subscribe returns a channel of job snapshots and a function that ends the
// subscription. A subscriber that falls behind misses events.
func (m *Manager) Subscribe() (<-chan Job, func()) {
	ch := make(chan Job, subscriberBuffer)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publishLocked(job Job) {
	for _, ch := range m.subs {
		select {
		case ch <- job:
		default:
		}
	}
}

// CleanupOldJobs removes settled jobs older than the specified duration.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range m.jobs {
		if job.Done() && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}
