package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports the operational status of schedule generation based on
// the most recent run: healthy when the last run was clean, degraded
// (429) when it succeeded with violations, critical (500) when it failed.
func (h *Handler) Health(c *gin.Context) {
	last, ok := h.Metrics.Last()
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"last_run":  nil,
		})
		return
	}

	status := "healthy"
	code := http.StatusOK
	switch {
	case !last.Success:
		status = "critical"
		code = http.StatusInternalServerError
	case !last.Clean():
		status = "degraded"
		code = http.StatusTooManyRequests
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"last_run": gin.H{
			"success":             last.Success,
			"coverage_deficit":    last.CoverageDeficits,
			"overtime_violations": last.OvertimeViolations,
			"pattern_errors":      last.PatternErrors,
			"generation_time_ms":  last.Duration.Milliseconds(),
			"completed_at":        last.CompletedAt,
		},
	})
}
