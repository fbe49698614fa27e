package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/detector/decode"
)

// Cascade detects frontal faces with a Haar cascade.
type Cascade struct {
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
}

func NewCascade(path string) (*Cascade, error) {
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		c.Close()
		return nil, fmt.Errorf("failed to load cascade %s", path)
	}
	return &Cascade{classifier: c}, nil
}

func (c *Cascade) Detect(frame gocv.Mat) ([]models.Detection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	rects := c.classifier.DetectMultiScaleWithParams(gray, 1.1, 5, 0, image.Pt(30, 30), image.Pt(0, 0))
	return decode.Faces(rects), nil
}

func (c *Cascade) NativeTracking() bool { return false }

func (c *Cascade) Name() string { return "cascade" }

func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}

// Composite adds auxiliary face detections to a primary detector's output.
type Composite struct {
	Primary Detector
	Faces   Detector
}

func (c *Composite) Detect(frame gocv.Mat) ([]models.Detection, error) {
	dets, err := c.Primary.Detect(frame)
	if err != nil {
		return nil, err
	}
	faces, err := c.Faces.Detect(frame)
	if err != nil {
		// primary results are still usable
		return dets, nil
	}
	return append(dets, faces...), nil
}

func (c *Composite) NativeTracking() bool { return c.Primary.NativeTracking() }

func (c *Composite) Name() string { return c.Primary.Name() + "+faces" }

func (c *Composite) Close() error {
	err := c.Primary.Close()
	if ferr := c.Faces.Close(); err == nil {
		err = ferr
	}
	return err
}
