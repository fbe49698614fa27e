package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithCamera(base zerolog.Logger, cameraID int64) zerolog.Logger {
	return base.With().Int64("camera_id", cameraID).Logger()
}

// WithViewer tags a transport logger with the viewer connection id.
func WithViewer(base zerolog.Logger, viewerID string) zerolog.Logger {
	return base.With().Str("viewer_id", viewerID).Logger()
}
