// Package diarization defines the speaker-diarization engine boundary and
// speaker-segment types. Diarization is optional: the service runs without a
// backend and simply skips speaker attribution.
//
// # Backends
//
//   - diarization/pyannote: pyannote HTTP sidecar
package diarization
