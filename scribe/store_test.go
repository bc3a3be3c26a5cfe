package scribe

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(time.Hour, 10)
	job := testJob()
	s.Put(job)

	status, err := s.Status(job.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status != StatusPending {
		t.Errorf("Status() = %s, want %s", status, StatusPending)
	}

	if _, err := s.Result(job.ID); !errors.Is(err, ErrNotReady) {
		t.Errorf("Result() before completion error = %v, want ErrNotReady", err)
	}

	if err := s.MarkProcessing(job.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	status, _ = s.Status(job.ID)
	if status != StatusProcessing {
		t.Errorf("Status() = %s, want %s", status, StatusProcessing)
	}

	res := &Result{RequestID: job.ID, CallID: job.CallID, Status: StatusCompleted, Text: "hello"}
	if err := s.SetResult(job.ID, res); err != nil {
		t.Fatalf("SetResult() error = %v", err)
	}

	got, err := s.Result(job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if got.Text != "hello" {
		t.Errorf("Result().Text = %q, want %q", got.Text, "hello")
	}
}

func TestStoreUnknownJob(t *testing.T) {
	s := NewStore(time.Hour, 10)
	id := uuid.New()

	if _, err := s.Status(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Status() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Result(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Result() error = %v, want ErrNotFound", err)
	}
	if err := s.Cancel(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cancel() error = %v, want ErrNotFound", err)
	}
}

func TestStoreCancelBlocksResult(t *testing.T) {
	s := NewStore(time.Hour, 10)
	job := testJob()
	s.Put(job)
	if err := s.MarkProcessing(job.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}

	if err := s.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	status, _ := s.Status(job.ID)
	if status != StatusCancelled {
		t.Errorf("Status() = %s, want %s", status, StatusCancelled)
	}

	// The worker finishing after cancellation must not overwrite the
	// cancelled outcome.
	late := &Result{RequestID: job.ID, Status: StatusCompleted, Text: "too late"}
	if err := s.SetResult(job.ID, late); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetResult() after cancel error = %v, want ErrTerminal", err)
	}
	got, err := s.Result(job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("Result().Status = %s, want %s", got.Status, StatusCancelled)
	}
	if got.Text != "" {
		t.Errorf("Result().Text = %q, want empty for cancelled job", got.Text)
	}
}

func TestStoreCancelTerminal(t *testing.T) {
	s := NewStore(time.Hour, 10)
	job := testJob()
	s.Put(job)
	if err := s.SetResult(job.ID, &Result{RequestID: job.ID, Status: StatusCompleted}); err != nil {
		t.Fatalf("SetResult() error = %v", err)
	}
	if err := s.Cancel(job.ID); !errors.Is(err, ErrTerminal) {
		t.Errorf("Cancel() on completed job error = %v, want ErrTerminal", err)
	}
}

func TestStoreMarkProcessingAfterCancel(t *testing.T) {
	s := NewStore(time.Hour, 10)
	job := testJob()
	s.Put(job)
	if err := s.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := s.MarkProcessing(job.ID); !errors.Is(err, ErrTerminal) {
		t.Errorf("MarkProcessing() after cancel error = %v, want ErrTerminal", err)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(time.Hour, 10)
	job := testJob()
	s.Put(job)
	s.Remove(job.ID)
	if _, err := s.Status(job.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Status() after Remove error = %v, want ErrNotFound", err)
	}
}

func TestStoreCleanup(t *testing.T) {
	s := NewStore(time.Hour, 10)

	expired := testJob()
	s.Put(expired)
	if err := s.SetResult(expired.ID, &Result{RequestID: expired.ID, Status: StatusCompleted}); err != nil {
		t.Fatalf("SetResult() error = %v", err)
	}

	fresh := testJob()
	s.Put(fresh)
	if err := s.SetResult(fresh.ID, &Result{RequestID: fresh.ID, Status: StatusFailed}); err != nil {
		t.Fatalf("SetResult() error = %v", err)
	}

	pending := testJob()
	s.Put(pending)

	// Only the expired terminal entry is past retention at this clock.
	removed := s.Cleanup(time.Now())
	if removed != 0 {
		t.Errorf("Cleanup() now = %d removed, want 0", removed)
	}

	removed = s.Cleanup(time.Now().Add(2 * time.Hour))
	if removed != 2 {
		t.Errorf("Cleanup() after retention = %d removed, want 2 terminal entries", removed)
	}
	if _, err := s.Status(pending.ID); err != nil {
		t.Errorf("pending job reaped by Cleanup: %v", err)
	}
}

func TestStoreCleanupBatchLimit(t *testing.T) {
	s := NewStore(time.Minute, 3)
	for i := 0; i < 10; i++ {
		job := testJob()
		s.Put(job)
		if err := s.SetResult(job.ID, &Result{RequestID: job.ID, Status: StatusCompleted}); err != nil {
			t.Fatalf("SetResult() error = %v", err)
		}
	}

	later := time.Now().Add(time.Hour)
	if removed := s.Cleanup(later); removed != 3 {
		t.Errorf("Cleanup() = %d removed, want batch limit 3", removed)
	}
	if s.Len() != 7 {
		t.Errorf("Len() = %d, want 7 after one batch", s.Len())
	}

	// Repeated passes drain the rest.
	total := 3
	for i := 0; i < 5 && s.Len() > 0; i++ {
		total += s.Cleanup(later)
	}
	if total != 10 {
		t.Errorf("total reaped = %d, want 10", total)
	}
}
