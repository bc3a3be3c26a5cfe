package diarization

import (
	"context"

	"github.com/skillsenselab/scribe/provider"
)

// Provider is the interface diarization backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Diarize partitions audio into speaker-attributed intervals, bounded by
	// the optional speaker-count hints in the request.
	Diarize(ctx context.Context, req Request) (*Response, error)
}
