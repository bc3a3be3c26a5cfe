package scribe

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/transcription"
	"github.com/skillsenselab/scribe/util"
)

// WorkerConfig tunes the processing loop.
type WorkerConfig struct {
	// JobTimeout caps the engine time spent on a single job.
	JobTimeout time.Duration
	// FaultPause is how long the loop waits after an unexpected loop
	// fault before resuming.
	FaultPause time.Duration
}

// ApplyDefaults fills unset fields.
func (c *WorkerConfig) ApplyDefaults() {
	if c.JobTimeout <= 0 {
		c.JobTimeout = 5 * time.Minute
	}
	if c.FaultPause <= 0 {
		c.FaultPause = 5 * time.Second
	}
}

// Worker consumes the queue one job at a time and drives each job through
// recognition, alignment, diarization and assembly. A panic while handling
// a job fails that job only; a fault in the loop itself pauses briefly and
// resumes, so the loop survives until the queue is closed.
type Worker struct {
	queue      *Queue
	store      *Store
	stats      *StatsCollector
	assembler  *Assembler
	recognizer transcription.Recognizer
	aligner    transcription.Aligner
	diarizer   diarization.Provider
	dispatcher *Dispatcher
	cfg        WorkerConfig
	log        *logger.Logger

	active chan struct{}
	done   chan struct{}
}

// NewWorker wires a worker. aligner, diarizer and dispatcher may be nil.
func NewWorker(q *Queue, s *Store, st *StatsCollector, rec transcription.Recognizer, al transcription.Aligner, di diarization.Provider, d *Dispatcher, cfg WorkerConfig) *Worker {
	cfg.ApplyDefaults()
	return &Worker{
		queue:      q,
		store:      s,
		stats:      st,
		assembler:  NewAssembler(),
		recognizer: rec,
		aligner:    al,
		diarizer:   di,
		dispatcher: d,
		cfg:        cfg,
		log:        logger.WithComponent("worker"),
		active:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Run consumes jobs until the queue closes or ctx ends. It returns after
// the in-flight job, if any, has finished.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		if !w.runOnce(ctx) {
			return
		}
	}
}

// Done is closed once the loop has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Active reports whether a job is currently being processed.
func (w *Worker) Active() bool {
	return len(w.active) > 0
}

// runOnce takes and processes one job. It reports false when the loop
// should stop. A recover here catches faults outside per-job handling.
func (w *Worker) runOnce(ctx context.Context) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("worker loop fault, pausing", logger.Fields(
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			))
			select {
			case <-time.After(w.cfg.FaultPause):
			case <-ctx.Done():
			}
			cont = ctx.Err() == nil
		}
	}()

	job, err := w.queue.Take(ctx)
	if err != nil {
		if !errors.Is(err, ErrQueueClosed) && !errors.Is(err, context.Canceled) {
			w.log.Error("queue take failed", logger.ErrorFields("take", err))
		}
		return false
	}

	w.active <- struct{}{}
	w.process(ctx, job)
	<-w.active
	return true
}

// process runs a single job end to end. Processing time is measured from
// dequeue, so queue wait is excluded.
func (w *Worker) process(ctx context.Context, job *Job) {
	start := time.Now()
	log := w.log.WithFields(logger.Fields(
		logger.FieldJobID, job.ID.String(),
		logger.FieldCallID, job.CallID.String(),
	))

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", logger.Fields(
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			))
			w.finishFailed(job, fmt.Sprintf("internal error: %v", r), time.Since(start))
		}
	}()

	if err := w.store.MarkProcessing(job.ID); err != nil {
		// Cancelled (or reaped) before pickup; nothing to do.
		log.Info("skipping job no longer pending", logger.Fields("reason", err.Error()))
		if errors.Is(err, ErrTerminal) {
			w.stats.RecordCancelled()
		}
		return
	}
	log.Info("processing job", logger.Fields("audio_path", job.AudioPath))

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	res, audioSeconds, err := w.transcribe(jobCtx, job)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("job failed", logger.Fields(
			logger.FieldError, err.Error(),
			"elapsed_ms", elapsed.Milliseconds(),
		))
		w.finishFailed(job, err.Error(), elapsed)
		return
	}
	res.ProcessingTimeMS = elapsed.Milliseconds()

	if err := w.store.SetResult(job.ID, res); err != nil {
		// Cancelled mid-flight; the computed result is discarded.
		log.Info("discarding result for finished job", logger.Fields("reason", err.Error()))
		w.stats.RecordCancelled()
		return
	}
	w.stats.RecordCompleted(elapsed.Milliseconds(), audioSeconds)
	text := util.Truncate(res.Text, 200)
	if strings.TrimSpace(res.Text) == "" {
		text = "<no speech detected>"
	}
	log.Info("job completed", logger.Fields(
		"elapsed_ms", elapsed.Milliseconds(),
		"language", res.Language,
		"text", text,
	))
	w.deliver(job, res)
}

// transcribe runs the engine pipeline for one job and assembles the result.
// A failing stage fails the whole job; no partial result is produced. A
// stage that is not configured at all (nil aligner or diarizer) is skipped.
func (w *Worker) transcribe(ctx context.Context, job *Job) (*Result, float64, error) {
	tr, err := w.recognizer.Transcribe(ctx, transcription.Request{
		AudioPath: job.AudioPath,
		Language:  job.Options.Language,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("transcription: %w", err)
	}

	if w.aligner != nil && tr.Language != "" && len(tr.Segments) > 0 {
		aligned, err := w.align(ctx, job, tr)
		if err != nil {
			return nil, 0, fmt.Errorf("alignment: %w", err)
		}
		tr.Segments = aligned
	}

	var di *diarization.Response
	if w.diarizer != nil && job.Options.Diarize {
		di, err = w.diarizer.Diarize(ctx, diarization.Request{
			AudioPath:   job.AudioPath,
			MinSpeakers: job.Options.MinSpeakers,
			MaxSpeakers: job.Options.MaxSpeakers,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("diarization: %w", err)
		}
	}

	res := w.assembler.Assemble(job, tr, di, 0)
	return res, AudioDuration(tr.Segments), nil
}

// align reloads the alignment model when the detected language differs from
// the currently loaded one, then aligns the segments.
func (w *Worker) align(ctx context.Context, job *Job, tr *transcription.Response) ([]transcription.Segment, error) {
	if tr.Language != "" && w.aligner.Language() != tr.Language {
		if err := w.aligner.Load(ctx, tr.Language); err != nil {
			return nil, fmt.Errorf("load alignment model %q: %w", tr.Language, err)
		}
	}
	out, err := w.aligner.Align(ctx, transcription.AlignRequest{
		AudioPath: job.AudioPath,
		Segments:  tr.Segments,
	})
	if err != nil {
		return nil, err
	}
	return out.Segments, nil
}

func (w *Worker) finishFailed(job *Job, msg string, elapsed time.Duration) {
	res := &Result{
		RequestID:        job.ID,
		CallID:           job.CallID,
		Status:           StatusFailed,
		Error:            msg,
		ProcessingTimeMS: elapsed.Milliseconds(),
		CompletedAt:      time.Now().UTC(),
	}
	if err := w.store.SetResult(job.ID, res); err != nil {
		w.stats.RecordCancelled()
		return
	}
	w.stats.RecordFailed()
	w.deliver(job, res)
}

func (w *Worker) deliver(job *Job, res *Result) {
	if w.dispatcher == nil || job.CallbackURL == "" {
		return
	}
	w.dispatcher.Dispatch(job.CallbackURL, res)
}
