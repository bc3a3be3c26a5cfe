package scribe

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no job with the given ID is known to the store.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady means the job exists but has not reached a terminal state.
	ErrNotReady = errors.New("job not ready")
	// ErrTerminal means the job already reached a terminal state and the
	// requested transition is not allowed.
	ErrTerminal = errors.New("job in terminal state")
)

type entry struct {
	job        *Job
	status     Status
	result     *Result
	finishedAt time.Time
}

// Store holds job state and results in memory. Entries are retained for a
// fixed period after reaching a terminal state, then reaped in small batches.
type Store struct {
	mu        sync.Mutex
	entries   map[uuid.UUID]*entry
	retention time.Duration
	batch     int
}

// NewStore returns a store reaping terminal entries older than retention,
// at most batch entries per cleanup pass.
func NewStore(retention time.Duration, batch int) *Store {
	if retention <= 0 {
		retention = time.Hour
	}
	if batch <= 0 {
		batch = 10
	}
	return &Store{
		entries:   make(map[uuid.UUID]*entry),
		retention: retention,
		batch:     batch,
	}
}

// Put registers a newly submitted job as pending.
func (s *Store) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.ID] = &entry{job: job, status: StatusPending}
}

// Remove deletes a job outright. Used to roll back admission when the
// queue rejects a submission.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Status returns the job's current status, or ErrNotFound.
func (s *Store) Status(id uuid.UUID) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return "", ErrNotFound
	}
	return e.status, nil
}

// Job returns the stored job record, or ErrNotFound.
func (s *Store) Job(id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.job, nil
}

// Result returns the assembled result for a terminal job. A known but
// unfinished job yields ErrNotReady so callers can tell "keep polling"
// apart from "never existed".
func (s *Store) Result(id uuid.UUID) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.result == nil {
		return nil, ErrNotReady
	}
	return e.result, nil
}

// MarkProcessing transitions a pending job to processing. It fails with
// ErrTerminal when the job was cancelled (or otherwise finished) before
// the worker picked it up.
func (s *Store) MarkProcessing(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	if e.status.Terminal() {
		return ErrTerminal
	}
	e.status = StatusProcessing
	return nil
}

// Cancel marks a non-terminal job cancelled. In-flight engine work is not
// interrupted; the cancelled status blocks the worker's later SetResult, so
// the computed output is discarded rather than surfaced.
func (s *Store) Cancel(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	if e.status.Terminal() {
		return ErrTerminal
	}
	e.status = StatusCancelled
	e.finishedAt = time.Now()
	e.result = &Result{
		RequestID:   e.job.ID,
		CallID:      e.job.CallID,
		Status:      StatusCancelled,
		Confidence:  nil,
		CompletedAt: time.Now().UTC(),
	}
	return nil
}

// SetResult records the worker's outcome for a job. A job cancelled while
// processing keeps its cancelled result; the worker's output is dropped and
// ErrTerminal is returned so the caller can skip delivery.
func (s *Store) SetResult(id uuid.UUID, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	if e.status.Terminal() {
		return ErrTerminal
	}
	e.status = res.Status
	e.result = res
	e.finishedAt = time.Now()
	return nil
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup reaps up to the batch limit of terminal entries older than the
// retention period. Pending and processing jobs are never reaped.
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.retention)
	removed := 0
	for id, e := range s.entries {
		if removed >= s.batch {
			break
		}
		if !e.status.Terminal() || e.finishedAt.IsZero() {
			continue
		}
		if e.finishedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
