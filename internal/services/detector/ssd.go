package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/detector/decode"
)

// SSD runs SSD MobileNet v3 through the OpenCV DNN module on the CPU.
type SSD struct {
	net    gocv.Net
	labels []string
	conf   float64
	mu     sync.Mutex
}

func NewSSD(modelPath, configPath, namesPath string, conf float64) (*SSD, error) {
	labels, err := decode.LoadLabels(namesPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromTensorflow(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load SSD network from %s and %s", modelPath, configPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &SSD{net: net, labels: labels, conf: conf}, nil
}

func (s *SSD) Detect(frame gocv.Mat) ([]models.Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob := gocv.BlobFromImage(frame, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read ssd output: %w", err)
	}
	return decode.SSD(data, s.labels, s.conf, frame.Cols(), frame.Rows()), nil
}

func (s *SSD) NativeTracking() bool { return false }

func (s *SSD) Name() string { return "ssdmobilenet" }

func (s *SSD) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
