package scribe

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/scribe/diarization"
	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/transcription"
)

// Service is the facade over the queue, store and worker. Every request
// path runs a bounded cleanup pass, so expired entries are reaped during
// normal traffic without a background timer.
type Service struct {
	queue      *Queue
	store      *Store
	stats      *StatsCollector
	worker     *Worker
	recognizer transcription.Recognizer
	diarizer   diarization.Provider
	log        *logger.Logger
}

// NewService wires the facade. diarizer may be nil when diarization is
// disabled.
func NewService(q *Queue, s *Store, st *StatsCollector, w *Worker, rec transcription.Recognizer, di diarization.Provider) *Service {
	return &Service{
		queue:      q,
		store:      s,
		stats:      st,
		worker:     w,
		recognizer: rec,
		diarizer:   di,
		log:        logger.WithComponent("service"),
	}
}

// Submit admits a job, rejecting it when the audio file is unreachable or
// the queue is at capacity. The job is registered in the store before
// enqueueing so a status probe issued immediately after submission always
// resolves.
func (s *Service) Submit(callID uuid.UUID, audioPath string, opts Options, callbackURL string, priority int) (*Job, error) {
	defer s.cleanup()

	if _, err := os.Stat(audioPath); err != nil {
		s.log.Warn("audio file unreachable", logger.Fields(
			logger.FieldCallID, callID.String(),
			"audio_path", audioPath,
		))
		return nil, apperrors.NotFound("audio file", audioPath)
	}

	job := NewJob(callID, audioPath, opts)
	job.CallbackURL = callbackURL
	job.Priority = priority

	s.store.Put(job)
	if err := s.queue.Submit(job); err != nil {
		s.store.Remove(job.ID)
		s.stats.RecordRejected()
		if errors.Is(err, ErrQueueFull) {
			s.log.Warn("submission rejected, queue full", logger.Fields(
				logger.FieldCallID, callID.String(),
				"queue_depth", s.queue.Len(),
			))
			return nil, apperrors.QueueFull()
		}
		return nil, apperrors.ServiceUnavailable("transcription service shutting down")
	}
	s.stats.RecordSubmitted()
	s.log.Info("job submitted", logger.Fields(
		logger.FieldJobID, job.ID.String(),
		logger.FieldCallID, callID.String(),
		"queue_depth", s.queue.Len(),
	))
	return job, nil
}

// Status returns the current lifecycle state of a job.
func (s *Service) Status(id uuid.UUID) (Status, error) {
	defer s.cleanup()

	status, err := s.store.Status(id)
	if err != nil {
		return "", apperrors.NotFound("job", id.String())
	}
	return status, nil
}

// Result returns the assembled result of a finished job. An unfinished job
// yields a not-ready error distinct from not-found.
func (s *Service) Result(id uuid.UUID) (*Result, error) {
	defer s.cleanup()

	res, err := s.store.Result(id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, apperrors.NotFound("job", id.String()).
			WithMessage("The requested job was not found. It may never have existed, or its result may have expired.")
	case errors.Is(err, ErrNotReady):
		return nil, apperrors.NotReady("job", id.String())
	case err != nil:
		return nil, apperrors.Internal(err)
	}
	return res, nil
}

// Cancel marks a job cancelled. A job already processing keeps running on
// the engines, but its result will be discarded and never delivered.
func (s *Service) Cancel(id uuid.UUID) error {
	defer s.cleanup()

	err := s.store.Cancel(id)
	switch {
	case errors.Is(err, ErrNotFound):
		return apperrors.NotFound("job", id.String())
	case errors.Is(err, ErrTerminal):
		return apperrors.Conflict("The job already finished and cannot be cancelled.")
	case err != nil:
		return apperrors.Internal(err)
	}
	s.log.Info("job cancelled", logger.Fields(logger.FieldJobID, id.String()))
	return nil
}

// Health reports engine availability and queue pressure. Device details are
// included when the engine can report them.
func (s *Service) Health(ctx context.Context) *Health {
	defer s.cleanup()

	available := s.recognizer.IsAvailable(ctx)
	h := &Health{
		Healthy:         available,
		Status:          "ok",
		ModelLoaded:     available,
		DiarizerEnabled: s.diarizer != nil,
		QueueDepth:      s.queue.Len(),
		QueueCapacity:   s.queue.Cap(),
		CheckedAt:       time.Now().UTC(),
	}
	if s.worker.Active() {
		h.ActiveWorkers = 1
	}
	if !available {
		h.Status = "degraded"
	}
	if dr, ok := s.recognizer.(transcription.DeviceReporter); ok && available {
		if info, err := dr.DeviceInfo(ctx); err == nil {
			h.GPUAvailable = info.GPUAvailable
			h.AvailableMemory = info.AvailableMemory
		}
	}
	return h
}

// Stats returns the cumulative processing counters.
func (s *Service) Stats() Stats {
	defer s.cleanup()
	st := s.stats.Snapshot(s.queue.Len(), s.store.Len())
	if s.worker.Active() {
		st.Processing = 1
	}
	return st
}

func (s *Service) cleanup() {
	if n := s.store.Cleanup(time.Now()); n > 0 {
		s.log.Debug("reaped expired jobs", logger.Fields("count", n))
	}
}
