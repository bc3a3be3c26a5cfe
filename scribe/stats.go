package scribe

import (
	"sync"
	"time"
)

// StatsCollector accumulates processing counters. The average processing
// time is maintained as a running mean over completed jobs.
type StatsCollector struct {
	mu            sync.Mutex
	startedAt     time.Time
	totalRequests int64
	completed     int64
	failed        int64
	cancelled     int64
	rejected      int64
	avgMS         float64
	totalAudioS   float64
}

// NewStatsCollector returns a zeroed collector. Uptime counts from here.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{startedAt: time.Now()}
}

// RecordSubmitted counts an admitted submission.
func (c *StatsCollector) RecordSubmitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

// RecordRejected counts a submission refused at admission.
func (c *StatsCollector) RecordRejected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected++
}

// RecordCompleted folds a successful job into the counters. audioSeconds is
// the duration of transcribed audio, taken from the last segment end.
func (c *StatsCollector) RecordCompleted(processingMS int64, audioSeconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed++
	c.avgMS += (float64(processingMS) - c.avgMS) / float64(c.completed)
	c.totalAudioS += audioSeconds
}

// RecordFailed counts a failed job.
func (c *StatsCollector) RecordFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed++
}

// RecordCancelled counts a cancelled job.
func (c *StatsCollector) RecordCancelled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled++
}

// Snapshot returns the current counters with the given queue and store
// gauges filled in.
func (c *StatsCollector) Snapshot(queueDepth, storedJobs int) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		TotalRequests:       c.totalRequests,
		Completed:           c.completed,
		Failed:              c.failed,
		Cancelled:           c.cancelled,
		Rejected:            c.rejected,
		QueueDepth:          queueDepth,
		AvgProcessingTimeMS: c.avgMS,
		TotalAudioDurationS: c.totalAudioS,
		StoredJobs:          storedJobs,
		UptimeSeconds:       time.Since(c.startedAt).Seconds(),
	}
}
