package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/detector/decode"
)

// Darknet runs YOLOv3-tiny with non-maximum suppression.
type Darknet struct {
	net        gocv.Net
	outputs    []string
	labels     []string
	thresholds models.Thresholds
	mu         sync.Mutex
}

func NewDarknet(cfgPath, weightsPath, namesPath string, th models.Thresholds) (*Darknet, error) {
	labels, err := decode.LoadLabels(namesPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromDarknet(cfgPath, weightsPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load darknet network from %s and %s", cfgPath, weightsPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	names := net.GetLayerNames()
	var outputs []string
	for _, id := range net.GetUnconnectedOutLayers() {
		if id-1 >= 0 && id-1 < len(names) {
			outputs = append(outputs, names[id-1])
		}
	}

	return &Darknet{net: net, outputs: outputs, labels: labels, thresholds: th}, nil
}

func (d *Darknet) Detect(frame gocv.Mat) ([]models.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(416, 416), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outputs)
	defer func() {
		for _, o := range outs {
			o.Close()
		}
	}()

	var cands []decode.Candidate
	for _, o := range outs {
		data, err := o.DataPtrFloat32()
		if err != nil {
			return nil, fmt.Errorf("read darknet output: %w", err)
		}
		cands = append(cands, decode.YOLO(data, o.Cols(), d.thresholds.Confidence, frame.Cols(), frame.Rows())...)
	}
	if len(cands) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i], scores[i] = c.Box, c.Score
	}
	keep := gocv.NMSBoxes(boxes, scores, float32(d.thresholds.Confidence), float32(d.thresholds.IoU))
	return decode.Keep(cands, keep, d.labels), nil
}

func (d *Darknet) NativeTracking() bool { return false }

func (d *Darknet) Name() string { return "yolov3-tiny" }

func (d *Darknet) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
