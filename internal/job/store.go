// Package job tracks asynchronous backtest work submitted over the API.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trendsim/trendsim/internal/core"
)

// Kind names the operation a job performs.
type Kind string

const (
	KindBacktest Kind = "backtest"
	KindOptimize Kind = "optimize"
	KindCompare  Kind = "compare"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Job is one unit of async work. Result holds the operation-specific
// payload once the job completes.
type Job struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"kind"`
	Status    Status      `json:"status"`
	Progress  int         `json:"progress"`
	Stage     string      `json:"stage,omitempty"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.Status == StatusComplete || j.Status == StatusFailed
}

// Store is an in-memory job registry with FIFO eviction and TTL expiry
// of finished jobs.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	maxSize int
	ttl     time.Duration
}

// NewStore creates a job store holding at most maxSize jobs; finished
// jobs older than ttl are dropped during subsequent operations.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Create registers a new pending job, evicting the oldest job if the
// store is full.
func (s *Store) Create(kind Kind) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(time.Now())

	now := time.Now().UTC()
	j := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(s.jobs) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.jobs, oldest)
		s.order = s.order[1:]
	}

	s.jobs[j.ID] = j
	s.order = append(s.order, j.ID)

	cp := *j
	return &cp
}

// Get returns a copy of the job, or core.ErrNotFound.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, core.WrapError(core.ErrNotFound, errors.New("job "+id))
	}
	cp := *j
	return &cp, nil
}

// Update applies fn to the stored job under the lock.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return core.WrapError(core.ErrNotFound, errors.New("job "+id))
	}
	fn(j)
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns copies of all live jobs, newest first.
func (s *Store) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(time.Now())

	out := make([]Job, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if j, ok := s.jobs[s.order[i]]; ok {
			out = append(out, *j)
		}
	}
	return out
}

// Active counts jobs that have not reached a terminal state.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, j := range s.jobs {
		if !j.Done() {
			n++
		}
	}
	return n
}

// expireLocked drops finished jobs whose TTL has lapsed. Caller holds
// the write lock.
func (s *Store) expireLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		j := s.jobs[id]
		if j != nil && j.Done() && now.Sub(j.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
