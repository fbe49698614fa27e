package media

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/analysis"
)

// Frame wraps an annotated Mat owned by the pipeline loop for one iteration.
type Frame struct {
	Mat *gocv.Mat
}

func NewFrame(m *gocv.Mat) *Frame {
	return &Frame{Mat: m}
}

func (f *Frame) Size() (int, int) {
	if f.Mat == nil {
		return 0, 0
	}
	return f.Mat.Cols(), f.Mat.Rows()
}

// Annotate draws the analysis result onto the frame in place.
func (f *Frame) Annotate(res analysis.Result, counts models.Counts) {
	Annotate(f.Mat, res, counts)
}

// EncodeJPEG encodes the frame at quality.
func (f *Frame) EncodeJPEG(quality int) ([]byte, error) {
	if f.Mat == nil || f.Mat.Empty() {
		return nil, errors.New("empty frame")
	}
	return EncodeJPEG(*f.Mat, quality)
}

// WriteJPEG saves the frame to path.
func (f *Frame) WriteJPEG(path string) error {
	if f.Mat == nil || f.Mat.Empty() {
		return errors.New("empty frame")
	}
	if !gocv.IMWrite(path, *f.Mat) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}

// EncodeJPEG returns a copy of the frame encoded at quality.
func EncodeJPEG(m gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, m, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	defer buf.Close()

	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
