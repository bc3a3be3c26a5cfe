// Package transcription defines the speech-recognition and time-alignment
// engine boundaries and the timed-segment types shared across the service.
//
// Engines are external collaborators reached over HTTP sidecars; the service
// never loads models in-process.
//
// # Backends
//
//   - transcription/whisperx: WhisperX sidecar (recognition + alignment)
package transcription
