package transcription

import (
	"context"

	"github.com/skillsenselab/scribe/provider"
)

// Recognizer is the interface speech-recognition backends must implement.
type Recognizer interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends audio for recognition and returns raw segments plus
	// the detected or declared language.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// DeviceInfo describes the accelerator backing an engine, for engines that
// expose it. Fields are nil when the engine does not report them.
type DeviceInfo struct {
	GPUAvailable    *bool  `json:"gpu_available,omitempty"`
	AvailableMemory *int64 `json:"available_memory,omitempty"`
}

// DeviceReporter is optionally implemented by engines that can report
// device details for health checks.
type DeviceReporter interface {
	DeviceInfo(ctx context.Context) (*DeviceInfo, error)
}

// Aligner is the interface alignment backends must implement. An aligner
// holds at most one loaded model, scoped to a single language.
type Aligner interface {
	provider.Provider

	// Language returns the language of the currently loaded alignment model,
	// or "" when none is loaded.
	Language() string

	// Load makes the aligner ready for the given language. Any model loaded
	// for a different language is discarded first, freeing device memory.
	Load(ctx context.Context, language string) error

	// Align refines segment and word timing against the audio signal.
	Align(ctx context.Context, req AlignRequest) (*AlignResponse, error)
}
