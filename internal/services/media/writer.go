package media

import (
	"fmt"

	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/services/alarm"
)

// VideoWriter writes mp4v frames for one recording session.
type VideoWriter struct {
	w *gocv.VideoWriter
}

// NewVideoWriter matches alarm.WriterFactory.
func NewVideoWriter(path string, fps float64, width, height int) (alarm.VideoWriter, error) {
	w, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("video writer %s did not open", path)
	}
	return &VideoWriter{w: w}, nil
}

func (v *VideoWriter) Write(f alarm.Frame) error {
	frame, ok := f.(*Frame)
	if !ok || frame.Mat == nil {
		return fmt.Errorf("unsupported frame type %T", f)
	}
	return v.w.Write(*frame.Mat)
}

func (v *VideoWriter) Close() error {
	return v.w.Close()
}
