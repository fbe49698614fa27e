// Package decode turns raw DNN output tensors into detections.
package decode

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"

	"linewatch-worker-go/internal/models"
)

// LoadLabels reads one class name per line, keeping blank lines so indices stay aligned.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read class names: %w", err)
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		labels = append(labels, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read class names: %w", err)
	}
	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("class names file %s is empty", path)
	}
	return labels, nil
}

// SSD decodes a flattened [1,1,N,7] detection_out blob:
// (batch, class index, confidence, x1, y1, x2, y2) with normalized coordinates.
// Class indices are 1-based against labels.
func SSD(out []float32, labels []string, conf float64, w, h int) []models.Detection {
	var dets []models.Detection
	for i := 0; i+7 <= len(out); i += 7 {
		score := float64(out[i+2])
		if score <= conf {
			continue
		}
		idx := int(out[i+1])
		if idx < 1 || idx >= len(labels) {
			continue
		}

		box := image.Rect(
			int(out[i+3]*float32(w)), int(out[i+4]*float32(h)),
			int(out[i+5]*float32(w)), int(out[i+6]*float32(h)),
		)
		dets = append(dets, models.Detection{
			Kind:       models.KindTracked,
			Class:      labels[idx-1],
			Confidence: score,
			Box:        Clip(box, w, h),
		})
	}
	return dets
}

// Candidate is a YOLO box before non-maximum suppression.
type Candidate struct {
	Box   image.Rectangle
	Score float32
	Class int
}

// YOLO decodes darknet rows of (cx, cy, bw, bh, objectness, class scores...) normalized to the frame.
func YOLO(out []float32, cols int, conf float64, w, h int) []Candidate {
	if cols <= 5 {
		return nil
	}

	var cands []Candidate
	for i := 0; i+cols <= len(out); i += cols {
		row := out[i : i+cols]
		best, score := 0, float32(0)
		for c, s := range row[5:] {
			if s > score {
				best, score = c, s
			}
		}
		if float64(score) <= conf {
			continue
		}

		cx, cy := int(row[0]*float32(w)), int(row[1]*float32(h))
		bw, bh := int(row[2]*float32(w)), int(row[3]*float32(h))
		x, y := cx-bw/2, cy-bh/2
		cands = append(cands, Candidate{Box: image.Rect(x, y, x+bw, y+bh), Score: score, Class: best})
	}
	return cands
}

// Keep converts the candidates selected by NMS into detections, dropping unknown classes.
func Keep(cands []Candidate, indices []int, labels []string) []models.Detection {
	dets := make([]models.Detection, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(cands) {
			continue
		}
		c := cands[i]
		if c.Class >= len(labels) || labels[c.Class] == "" {
			continue
		}
		dets = append(dets, models.Detection{
			Kind:       models.KindTracked,
			Class:      labels[c.Class],
			Confidence: float64(c.Score),
			Box:        c.Box,
		})
	}
	return dets
}

// Faces wraps cascade rectangles as auxiliary face detections.
func Faces(rects []image.Rectangle) []models.Detection {
	dets := make([]models.Detection, 0, len(rects))
	for _, r := range rects {
		dets = append(dets, models.Detection{
			Kind:       models.KindAuxiliary,
			Class:      "face",
			Confidence: 0.95,
			Box:        r,
		})
	}
	return dets
}

// Clip keeps r inside a w×h frame.
func Clip(r image.Rectangle, w, h int) image.Rectangle {
	r.Min.X = max(0, r.Min.X)
	r.Min.Y = max(0, r.Min.Y)
	r.Max.X = min(w-1, r.Max.X)
	r.Max.Y = min(h-1, r.Max.Y)
	return r
}
