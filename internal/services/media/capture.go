package media

import (
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Capture is an open video source.
type Capture struct {
	cap    *gocv.VideoCapture
	uri    string
	fps    float64
	width  int
	height int
}

// OpenCapture opens uri (a device index or stream URL) with a small buffer for low latency.
func OpenCapture(uri string, bufferSize int, logger zerolog.Logger) (*Capture, error) {
	logger.Info().Str("url", uri).Msg("Opening video source")

	vc, err := gocv.OpenVideoCapture(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %s: %w", uri, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video capture is not opened for %s", uri)
	}
	if bufferSize > 0 {
		vc.Set(gocv.VideoCaptureBufferSize, float64(bufferSize))
	}

	c := &Capture{
		cap:    vc,
		uri:    uri,
		fps:    vc.Get(gocv.VideoCaptureFPS),
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}

	logger.Info().
		Float64("actual_fps", c.fps).
		Int("actual_width", c.width).
		Int("actual_height", c.height).
		Msg("VideoCapture opened successfully with actual properties")
	return c, nil
}

// Read fills m with the next frame; false means the stream produced nothing.
func (c *Capture) Read(m *gocv.Mat) bool {
	if ok := c.cap.Read(m); !ok {
		return false
	}
	return !m.Empty()
}

// FPS is the source rate, 0 when unknown.
func (c *Capture) FPS() float64 {
	return c.fps
}

func (c *Capture) Size() (int, int) {
	return c.width, c.height
}

func (c *Capture) URI() string {
	return c.uri
}

func (c *Capture) Close() error {
	if c.cap == nil {
		return nil
	}
	err := c.cap.Close()
	c.cap = nil
	return err
}
