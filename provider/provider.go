// Package provider defines the base contract shared by the external engine
// backends (speech recognition, alignment, diarization). Engines are black
// boxes: the service only knows their name and whether they are reachable.
package provider

import "context"

// Provider is the base interface all engine providers must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}
