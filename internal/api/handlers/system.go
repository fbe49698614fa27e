package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// ViewerCounter reports connected live-view clients.
type ViewerCounter interface {
	Count() int
}

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	WorkerID string
	loops    Loops
	viewers  ViewerCounter
	started  time.Time
}

func NewSystemHandler(workerID string, loops Loops, viewers ViewerCounter) *SystemHandler {
	return &SystemHandler{WorkerID: workerID, loops: loops, viewers: viewers, started: time.Now()}
}

// @Summary Running pipelines
// @Description Supervised camera loops with their state and viewers
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/pipelines [get]
func (h *SystemHandler) Pipelines(c *gin.Context) {
	pipelines := h.loops.Pipelines()
	c.JSON(http.StatusOK, gin.H{
		"worker_id": h.WorkerID,
		"pipelines": pipelines,
		"count":     len(pipelines),
		"viewers":   h.viewers.Count(),
	})
}

// @Summary Get system stats
// @Description Get system statistics and performance metrics
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker_id":      h.WorkerID,
			"uptime_seconds": int64(time.Since(h.started).Seconds()),
			"memory_mb":      m.Alloc / 1024 / 1024,
			"cpu_cores":      runtime.NumCPU(),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}
