package scribe

import (
	"time"

	"github.com/google/uuid"
)

// Status is a job's position in the lifecycle state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Options are the per-job transcription parameters supplied at submission.
// Diarize and the speaker bounds steer the pipeline; the remaining flags
// are recorded with the job and do not change the result shape, which is
// always fully populated.
type Options struct {
	Language         string `json:"language,omitempty"`
	Diarize          bool   `json:"diarize"`
	MinSpeakers      int    `json:"min_speakers,omitempty"`
	MaxSpeakers      int    `json:"max_speakers,omitempty"`
	VAD              bool   `json:"vad"`
	WordTimestamps   bool   `json:"word_timestamps"`
	ReturnConfidence bool   `json:"return_confidence"`
	MaxDuration      int    `json:"max_duration,omitempty"`
}

// DefaultOptions returns the options applied when a submission omits them.
func DefaultOptions() Options {
	return Options{
		Diarize:          true,
		VAD:              true,
		WordTimestamps:   true,
		ReturnConfidence: true,
	}
}

// Job is a unit of transcription work. Priority is recorded for callers that
// set it but does not affect ordering; the queue is strictly FIFO.
type Job struct {
	ID          uuid.UUID `json:"request_id"`
	CallID      uuid.UUID `json:"call_id"`
	AudioPath   string    `json:"audio_path"`
	RequestedAt time.Time `json:"requested_at"`
	Options     Options   `json:"options"`
	RetryCount  int       `json:"retry_count"`
	Priority    int       `json:"priority,omitempty"`
	CallbackURL string    `json:"callback_url,omitempty"`
}

// NewJob builds a job with a fresh request ID and the submission timestamp.
func NewJob(callID uuid.UUID, audioPath string, opts Options) *Job {
	return &Job{
		ID:          uuid.New(),
		CallID:      callID,
		AudioPath:   audioPath,
		RequestedAt: time.Now().UTC(),
		Options:     opts,
	}
}
