// Package scribe implements the transcription job orchestrator: a bounded
// FIFO queue with admission control, a single-consumer worker loop, the
// per-job lifecycle state store with retention-based cleanup, the result
// assembler that merges recognition, alignment and diarization output into
// one response, and best-effort webhook delivery.
//
// Exactly one job's engine calls are in flight at any instant; the queue is
// the only synchronization point between request handlers and the worker.
package scribe
