package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linewatch-worker-go/internal/config"
)

// HealthHandler answers liveness checks and describes which integrations this worker runs with.
type HealthHandler struct {
	workerID     string
	version      string
	capabilities []string
	loops        Loops
	viewers      ViewerCounter
	started      time.Time
}

func NewHealthHandler(cfg *config.Config, loops Loops, viewers ViewerCounter) *HealthHandler {
	return &HealthHandler{
		workerID:     cfg.WorkerID,
		version:      cfg.Version,
		capabilities: capabilities(cfg),
		loops:        loops,
		viewers:      viewers,
		started:      time.Now(),
	}
}

// capabilities lists the always-on features followed by the configured integrations.
func capabilities(cfg *config.Config) []string {
	caps := []string{"line_counting", "alarm_actions", "live_view", "mjpeg"}
	if cfg.EventBus != "" && cfg.EventBus != "none" {
		caps = append(caps, "events:"+cfg.EventBus)
	}
	if cfg.Minio.Endpoint != "" {
		caps = append(caps, "artifact_upload")
	}
	if cfg.Storage.Driver != "" {
		caps = append(caps, "storage:"+cfg.Storage.Driver)
	}
	return caps
}

type HealthResponse struct {
	Status        string `json:"status" example:"healthy"`
	WorkerID      string `json:"worker_id" example:"worker-1"`
	Pipelines     int    `json:"pipelines" example:"2"`
	Viewers       int    `json:"viewers" example:"1"`
	UptimeSeconds int64  `json:"uptime_seconds" example:"3600"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"worker-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Liveness of the worker with its supervised camera loops and live-view viewers
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		WorkerID:      h.workerID,
		Pipelines:     len(h.loops.Pipelines()),
		Viewers:       h.viewers.Count(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// @Summary Worker information
// @Description Version and enabled integrations (event bus, artifact upload, storage driver)
// @Tags health
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID:     h.workerID,
		Status:       "running",
		Version:      h.version,
		Capabilities: h.capabilities,
	})
}
