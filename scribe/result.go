package scribe

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/transcription"
)

// Result is the assembled outcome of a job, in the shape returned to
// clients and posted to callback URLs.
type Result struct {
	RequestID        uuid.UUID               `json:"request_id"`
	CallID           uuid.UUID               `json:"call_id"`
	Status           Status                  `json:"status"`
	Text             string                  `json:"text"`
	Language         string                  `json:"language,omitempty"`
	Confidence       *float64                `json:"confidence"`
	ProcessingTimeMS int64                   `json:"processing_time_ms"`
	Segments         []transcription.Segment `json:"segments,omitempty"`
	SpeakerSegments  []diarization.Segment   `json:"speaker_segments,omitempty"`
	SpeakerCount     *int                    `json:"speaker_count,omitempty"`
	Words            []transcription.Word    `json:"words,omitempty"`
	Error            string                  `json:"error,omitempty"`
	CompletedAt      time.Time               `json:"completed_at"`
}

// Health is the service-level health snapshot. Healthy is false when the
// recognition engine is unreachable; the endpoint still answers normally.
type Health struct {
	Healthy         bool      `json:"healthy"`
	Status          string    `json:"status"`
	ModelLoaded     bool      `json:"model_loaded"`
	DiarizerEnabled bool      `json:"diarizer_enabled"`
	QueueDepth      int       `json:"queue_depth"`
	QueueCapacity   int       `json:"queue_capacity"`
	ActiveWorkers   int       `json:"active_workers"`
	GPUAvailable    *bool     `json:"gpu_available,omitempty"`
	AvailableMemory *int64    `json:"available_memory,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Stats is the cumulative processing counters snapshot. Processing is 1
// while a job is in flight on the worker, 0 otherwise.
type Stats struct {
	TotalRequests       int64   `json:"total_requests"`
	Completed           int64   `json:"completed"`
	Failed              int64   `json:"failed"`
	Cancelled           int64   `json:"cancelled"`
	Rejected            int64   `json:"rejected"`
	Processing          int     `json:"processing"`
	QueueDepth          int     `json:"queue_depth"`
	AvgProcessingTimeMS float64 `json:"avg_processing_time_ms"`
	TotalAudioDurationS float64 `json:"total_audio_duration_s"`
	StoredJobs          int     `json:"stored_jobs"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}
