package scribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/transcription"
)

// fakeRecognizer scripts per-call behavior for the worker tests.
type fakeRecognizer struct {
	mu         sync.Mutex
	calls      []string
	available  bool
	transcribe func(ctx context.Context, req transcription.Request) (*transcription.Response, error)
}

func (f *fakeRecognizer) Name() string                         { return "fake" }
func (f *fakeRecognizer) IsAvailable(ctx context.Context) bool { return f.available }
func (f *fakeRecognizer) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.AudioPath)
	f.mu.Unlock()
	return f.transcribe(ctx, req)
}

func (f *fakeRecognizer) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeAligner struct {
	mu       sync.Mutex
	language string
	loads    []string
	align    func(ctx context.Context, req transcription.AlignRequest) (*transcription.AlignResponse, error)
}

func (f *fakeAligner) Name() string                         { return "fake-aligner" }
func (f *fakeAligner) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeAligner) Language() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.language
}
func (f *fakeAligner) Load(ctx context.Context, language string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, language)
	f.language = language
	return nil
}
func (f *fakeAligner) Align(ctx context.Context, req transcription.AlignRequest) (*transcription.AlignResponse, error) {
	if f.align != nil {
		return f.align(ctx, req)
	}
	return &transcription.AlignResponse{Segments: req.Segments}, nil
}

type fakeDiarizer struct {
	diarize func(ctx context.Context, req diarization.Request) (*diarization.Response, error)
}

func (f *fakeDiarizer) Name() string                         { return "fake-diarizer" }
func (f *fakeDiarizer) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeDiarizer) Diarize(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
	return f.diarize(ctx, req)
}

func simpleResponse(text string) *transcription.Response {
	return &transcription.Response{
		Language: "en",
		Segments: []transcription.Segment{{Start: 0, End: 1, Text: text}},
	}
}

// runWorker starts a worker, invokes fn, closes the queue and waits for
// the loop to drain.
func runWorker(t *testing.T, w *Worker, q *Queue, fn func()) {
	t.Helper()
	go w.Run(context.Background())
	fn()
	q.Close()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after queue close")
	}
}

func TestWorkerProcessesFIFO(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			return simpleResponse("hello"), nil
		},
	}
	w := NewWorker(q, s, st, rec, nil, nil, nil, WorkerConfig{})

	var jobs []*Job
	runWorker(t, w, q, func() {
		for i := 0; i < 3; i++ {
			job := testJob()
			job.AudioPath = string(rune('a' + i))
			s.Put(job)
			jobs = append(jobs, job)
			if err := q.Submit(job); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}
	})

	order := rec.callOrder()
	if len(order) != 3 {
		t.Fatalf("engine saw %d jobs, want 3", len(order))
	}
	for i, want := range []string{"a", "b", "c"} {
		if order[i] != want {
			t.Errorf("processing order[%d] = %q, want %q", i, order[i], want)
		}
	}
	for _, job := range jobs {
		res, err := s.Result(job.ID)
		if err != nil {
			t.Fatalf("Result(%s) error = %v", job.ID, err)
		}
		if res.Status != StatusCompleted {
			t.Errorf("job %s status = %s, want completed", job.ID, res.Status)
		}
		if res.Text != "hello" {
			t.Errorf("job %s text = %q, want hello", job.ID, res.Text)
		}
	}
}

func TestWorkerFailureDoesNotStallQueue(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			if req.AudioPath == "bad" {
				return nil, errors.New("decode error")
			}
			return simpleResponse("ok"), nil
		},
	}
	w := NewWorker(q, s, st, rec, nil, nil, nil, WorkerConfig{})

	bad := testJob()
	bad.AudioPath = "bad"
	good := testJob()
	good.AudioPath = "good"

	runWorker(t, w, q, func() {
		for _, job := range []*Job{bad, good} {
			s.Put(job)
			if err := q.Submit(job); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}
	})

	res, err := s.Result(bad.ID)
	if err != nil {
		t.Fatalf("Result(bad) error = %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("bad job status = %s, want failed", res.Status)
	}
	if res.Error == "" {
		t.Error("failed job carries no error message")
	}

	res, err = s.Result(good.ID)
	if err != nil {
		t.Fatalf("Result(good) error = %v", err)
	}
	if res.Status != StatusCompleted {
		t.Errorf("good job status = %s, want completed", res.Status)
	}
}

func TestWorkerSurvivesPanic(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			if req.AudioPath == "boom" {
				panic("recognizer exploded")
			}
			return simpleResponse("fine"), nil
		},
	}
	w := NewWorker(q, s, st, rec, nil, nil, nil, WorkerConfig{})

	crasher := testJob()
	crasher.AudioPath = "boom"
	next := testJob()
	next.AudioPath = "after"

	runWorker(t, w, q, func() {
		for _, job := range []*Job{crasher, next} {
			s.Put(job)
			if err := q.Submit(job); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}
	})

	res, err := s.Result(crasher.ID)
	if err != nil {
		t.Fatalf("Result(crasher) error = %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("crashed job status = %s, want failed", res.Status)
	}

	res, err = s.Result(next.ID)
	if err != nil {
		t.Fatalf("Result(next) error = %v", err)
	}
	if res.Status != StatusCompleted {
		t.Errorf("job after panic status = %s, want completed", res.Status)
	}
}

func TestWorkerSkipsCancelledBeforePickup(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			return simpleResponse("should not run"), nil
		},
	}
	w := NewWorker(q, s, st, rec, nil, nil, nil, WorkerConfig{})

	job := testJob()
	s.Put(job)
	if err := q.Submit(job); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := s.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	runWorker(t, w, q, func() {})

	if calls := rec.callOrder(); len(calls) != 0 {
		t.Errorf("engine ran %d times for a cancelled job, want 0", len(calls))
	}
	res, err := s.Result(job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", res.Status)
	}
}

func TestWorkerDiscardsResultCancelledMidFlight(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()

	started := make(chan struct{})
	release := make(chan struct{})
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			close(started)
			<-release
			return simpleResponse("computed anyway"), nil
		},
	}
	w := NewWorker(q, s, st, rec, nil, nil, nil, WorkerConfig{})

	job := testJob()
	s.Put(job)
	if err := q.Submit(job); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	runWorker(t, w, q, func() {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("engine never started")
		}
		if err := s.Cancel(job.ID); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		close(release)
	})

	res, err := s.Result(job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", res.Status)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want computed output discarded", res.Text)
	}
}

func TestWorkerReloadsAlignerOnLanguageChange(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()

	languages := []string{"en", "en", "de"}
	call := 0
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			resp := simpleResponse("text")
			resp.Language = languages[call]
			call++
			return resp, nil
		},
	}
	al := &fakeAligner{}
	w := NewWorker(q, s, st, rec, al, nil, nil, WorkerConfig{})

	runWorker(t, w, q, func() {
		for i := 0; i < 3; i++ {
			job := testJob()
			s.Put(job)
			if err := q.Submit(job); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}
	})

	// First job loads en, second reuses it, third swaps to de.
	want := []string{"en", "de"}
	if len(al.loads) != len(want) {
		t.Fatalf("aligner loads = %v, want %v", al.loads, want)
	}
	for i := range want {
		if al.loads[i] != want[i] {
			t.Errorf("aligner loads[%d] = %q, want %q", i, al.loads[i], want[i])
		}
	}
}

func TestWorkerDiarizerFailureFailsJob(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			return simpleResponse("hello"), nil
		},
	}
	di := &fakeDiarizer{
		diarize: func(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
			return nil, errors.New("diarizer down")
		},
	}
	w := NewWorker(q, s, st, rec, nil, di, nil, WorkerConfig{})

	job := testJob()
	runWorker(t, w, q, func() {
		s.Put(job)
		if err := q.Submit(job); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	})

	res, err := s.Result(job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	// A stage that is present but failing fails the whole job; no partial
	// result is published.
	if res.Status != StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty on failure", res.Text)
	}
	if !strings.Contains(res.Error, "diarization") || !strings.Contains(res.Error, "diarizer down") {
		t.Errorf("Error = %q, want the diarization stage message", res.Error)
	}
}

func TestWorkerAlignerFailureFailsJob(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			return simpleResponse("hello"), nil
		},
	}
	al := &fakeAligner{
		align: func(ctx context.Context, req transcription.AlignRequest) (*transcription.AlignResponse, error) {
			return nil, errors.New("alignment oom")
		},
	}
	w := NewWorker(q, s, st, rec, al, nil, nil, WorkerConfig{})

	job := testJob()
	runWorker(t, w, q, func() {
		s.Put(job)
		if err := q.Submit(job); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	})

	res, err := s.Result(job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
	if !strings.Contains(res.Error, "alignment") || !strings.Contains(res.Error, "alignment oom") {
		t.Errorf("Error = %q, want the alignment stage message", res.Error)
	}

	snap := st.Snapshot(q.Len(), s.Len())
	if snap.Failed != 1 || snap.Completed != 0 {
		t.Errorf("stats = %d failed / %d completed, want 1 / 0", snap.Failed, snap.Completed)
	}
}

func TestWorkerSkipsUnconfiguredStages(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			return simpleResponse("hello"), nil
		},
	}
	w := NewWorker(q, s, st, rec, nil, nil, nil, WorkerConfig{})

	job := testJob()
	runWorker(t, w, q, func() {
		s.Put(job)
		if err := q.Submit(job); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	})

	// No aligner and no diarizer configured is not a failure; the plain
	// recognition result completes the job.
	res, err := s.Result(job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", res.Status)
	}
	if res.Text != "hello" {
		t.Errorf("Text = %q, want plain transcript", res.Text)
	}
}

func TestWorkerRecordsStats(t *testing.T) {
	q := NewQueue(10)
	s := NewStore(time.Hour, 10)
	st := NewStatsCollector()
	rec := &fakeRecognizer{
		transcribe: func(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
			if req.AudioPath == "bad" {
				return nil, errors.New("nope")
			}
			return simpleResponse("ok"), nil
		},
	}
	w := NewWorker(q, s, st, rec, nil, nil, nil, WorkerConfig{})

	good := testJob()
	bad := testJob()
	bad.AudioPath = "bad"

	runWorker(t, w, q, func() {
		for _, job := range []*Job{good, bad} {
			s.Put(job)
			if err := q.Submit(job); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}
	})

	snap := st.Snapshot(q.Len(), s.Len())
	if snap.Completed != 1 {
		t.Errorf("Completed = %d, want 1", snap.Completed)
	}
	if snap.Failed != 1 {
		t.Errorf("Failed = %d, want 1", snap.Failed)
	}
	if snap.TotalAudioDurationS != 1 {
		t.Errorf("TotalAudioDurationS = %v, want 1 (last segment end)", snap.TotalAudioDurationS)
	}
}
