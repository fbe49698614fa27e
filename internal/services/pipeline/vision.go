package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/alarm"
	"linewatch-worker-go/internal/services/analysis"
)

// Frame is the current image of a source. It stays valid until the next Read or Close.
type Frame interface {
	alarm.Frame
	Size() (width, height int)
	Annotate(res analysis.Result, counts models.Counts)
	EncodeJPEG(quality int) ([]byte, error)
}

// Source is an open camera stream.
type Source interface {
	// Read returns the next frame; false means the stream produced nothing.
	Read() (Frame, bool)
	// FPS is the source rate, 0 when unknown.
	FPS() float64
	Close() error
}

// Detector produces detections for one frame.
type Detector interface {
	Detect(frame Frame) ([]models.Detection, error)
	Close() error
	NativeTracking() bool
	Name() string
}

// DetectorRequest selects the detector for one camera.
type DetectorRequest struct {
	Camera     *models.Camera
	Model      *models.AIModel
	Thresholds models.Thresholds
	Logger     zerolog.Logger
}

// Vision opens the capture, detection and recording backends a loop runs on.
type Vision interface {
	OpenSource(uri string, logger zerolog.Logger) (Source, error)
	OpenDetector(ctx context.Context, req DetectorRequest) (Detector, error)
	NewWriter(path string, fps float64, width, height int) (alarm.VideoWriter, error)
}
