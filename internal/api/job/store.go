// internal/api/job/store.go
package job

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/signalpro/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Job represents an async job.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    Status    `json:"status"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the job reached a final status.
func (j Job) Done() bool {
	return j.Status == StatusComplete || j.Status == StatusFailed
}

// Store manages async jobs. Once it holds maxSize jobs, Create evicts the
// oldest finished one; finished jobs older than ttl are dropped on the next
// Create.
type Store struct {
	jobs    map[string]*Job
	order   []string // Track insertion order for eviction
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

// NewStore creates a new job store.
func NewStore(maxSize int, ttl time.Duration) *Store {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create creates a new job and returns a copy of it.
func (s *Store) Create(jobType string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expire(now)

	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(s.jobs) >= s.maxSize {
		s.evictFinished()
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	return *job
}

// evictFinished drops the oldest finished job. Pending and running jobs are
// never evicted, so the store may exceed maxSize while they are in flight.
// Caller holds the lock.
func (s *Store) evictFinished() {
	for i, id := range s.order {
		if s.jobs[id].Done() {
			delete(s.jobs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// expire drops finished jobs past ttl. Caller holds the lock.
func (s *Store) expire(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		j := s.jobs[id]
		if j.Done() && now.Sub(j.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Get retrieves a job by ID.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, core.ErrJobNotFound
	}

	return *job, nil
}

// Update modifies a job using an update function.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.ErrJobNotFound
	}

	fn(job)
	job.UpdatedAt = s.now()
	return nil
}

// List returns all jobs, newest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		result = append(result, *job)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
