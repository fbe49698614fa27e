package detector

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/aiclient"
)

// Remote sends JPEG frames to the AI service, which returns persistent track ids.
type Remote struct {
	client     *aiclient.Client
	endpoint   string
	cameraID   int64
	model      string
	thresholds models.Thresholds
	quality    int
}

func (r *Remote) Detect(frame gocv.Mat) ([]models.Detection, error) {
	if err := r.client.EnsureConnected(r.endpoint); err != nil {
		return nil, err
	}

	quality := r.quality
	if quality <= 0 {
		quality = 95
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	return r.client.Track(context.Background(), aiclient.TrackRequest{
		JPEG:       buf.GetBytes(),
		CameraID:   r.cameraID,
		Model:      r.model,
		Confidence: r.thresholds.Confidence,
		IoU:        r.thresholds.IoU,
	})
}

func (r *Remote) NativeTracking() bool { return true }

func (r *Remote) Name() string { return "remote:" + r.model }

// Close leaves the shared client open; it is owned by the container.
func (r *Remote) Close() error { return nil }
