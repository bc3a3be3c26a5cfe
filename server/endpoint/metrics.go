package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics returns a handler reporting process-level runtime metrics. Job
// and queue counters live on the service's /stats endpoint; this is the
// Go-runtime view used to watch the worker process itself.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":     m.Alloc / 1024 / 1024,
				"sys_mb":       m.Sys / 1024 / 1024,
				"heap_objects": m.HeapObjects,
				"gc_runs":      m.NumGC,
			},
		})
	}
}
