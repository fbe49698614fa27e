package media

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/analysis"
)

var (
	colorTracked   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	colorAuxiliary = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	colorLine      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	colorIn        = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	colorOut       = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	colorText      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorPanel     = color.RGBA{R: 0, G: 0, B: 0, A: 180}
	colorAlarm     = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Annotate draws tracks, auxiliary boxes, the counting line and the stats panel onto m.
func Annotate(m *gocv.Mat, res analysis.Result, counts models.Counts) {
	if m == nil || m.Empty() {
		return
	}

	for _, t := range res.Tracks {
		drawBox(m, t.Box, colorTracked)
		label := fmt.Sprintf("%s #%d %.2f", t.Class, t.ID, t.Confidence)
		gocv.PutText(m, label, image.Pt(t.Box.Min.X, max(15, t.Box.Min.Y-8)), gocv.FontHersheySimplex, 0.5, colorTracked, 2)
		gocv.Circle(m, t.Center, 4, colorTracked, -1)
	}
	for _, d := range res.Auxiliary {
		drawBox(m, d.Box, colorAuxiliary)
		gocv.PutText(m, d.Class, image.Pt(d.Box.Min.X, max(15, d.Box.Min.Y-8)), gocv.FontHersheySimplex, 0.5, colorAuxiliary, 2)
	}

	if res.Line != nil && !res.Line.Degenerate() {
		gocv.Line(m, res.Line.P1, res.Line.P2, colorLine, 2)
		in, out := res.Line.LabelPositions()
		gocv.PutText(m, "IN", in, gocv.FontHersheySimplex, 0.7, colorIn, 2)
		gocv.PutText(m, "OUT", out, gocv.FontHersheySimplex, 0.7, colorOut, 2)
	}

	lines := []string{fmt.Sprintf("IN: %d", counts.In), fmt.Sprintf("OUT: %d", counts.Out)}
	if res.AlarmActive {
		lines = append(lines, fmt.Sprintf("ALARM: %s", res.Trigger))
	}
	drawPanel(m, lines, res.AlarmActive)
}

// drawBox draws a clipped rectangle with corner ticks.
func drawBox(m *gocv.Mat, r image.Rectangle, c color.RGBA) {
	width, height := m.Cols(), m.Rows()
	x1 := max(0, min(width-2, r.Min.X))
	y1 := max(0, min(height-2, r.Min.Y))
	x2 := max(x1+1, min(width-1, r.Max.X))
	y2 := max(y1+1, min(height-1, r.Max.Y))

	gocv.Rectangle(m, image.Rect(x1, y1, x2, y2), c, 2)
	cornerLength := 15
	cornerThickness := 3
	gocv.Line(m, image.Pt(x1, y1), image.Pt(x1+cornerLength, y1), c, cornerThickness)
	gocv.Line(m, image.Pt(x1, y1), image.Pt(x1, y1+cornerLength), c, cornerThickness)
	gocv.Line(m, image.Pt(x2, y1), image.Pt(x2-cornerLength, y1), c, cornerThickness)
	gocv.Line(m, image.Pt(x2, y1), image.Pt(x2, y1+cornerLength), c, cornerThickness)
	gocv.Line(m, image.Pt(x1, y2), image.Pt(x1+cornerLength, y2), c, cornerThickness)
	gocv.Line(m, image.Pt(x1, y2), image.Pt(x1, y2-cornerLength), c, cornerThickness)
	gocv.Line(m, image.Pt(x2, y2), image.Pt(x2-cornerLength, y2), c, cornerThickness)
	gocv.Line(m, image.Pt(x2, y2), image.Pt(x2, y2-cornerLength), c, cornerThickness)
}

func drawPanel(m *gocv.Mat, lines []string, alarm bool) {
	fontFace := gocv.FontHersheySimplex
	fontScale := 0.6
	thickness := 2
	lineHeight := 25
	padding := 10

	maxTextWidth := 0
	for _, line := range lines {
		if size := gocv.GetTextSize(line, fontFace, fontScale, thickness); size.X > maxTextWidth {
			maxTextWidth = size.X
		}
	}

	startY := 10
	gocv.Rectangle(m, image.Rect(5, startY, maxTextWidth+padding*2+5, startY+len(lines)*lineHeight+padding), colorPanel, -1)
	for i, line := range lines {
		c := colorText
		if alarm && i == len(lines)-1 {
			c = colorAlarm
		}
		gocv.PutText(m, line, image.Pt(padding+5, startY+(i*lineHeight)+20), fontFace, fontScale, c, thickness)
	}
}

// Placeholder renders the frame shown to MJPEG viewers before the first real frame.
func Placeholder(cameraID int64) []byte {
	placeholder := gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)
	defer placeholder.Close()

	placeholder.SetTo(gocv.Scalar{Val1: 64, Val2: 64, Val3: 64, Val4: 0})
	gocv.PutText(&placeholder, fmt.Sprintf("Camera: %d", cameraID), image.Pt(20, 180), gocv.FontHersheySimplex, 1.0, colorText, 2)
	gocv.PutText(&placeholder, "Initializing...", image.Pt(20, 220), gocv.FontHersheySimplex, 0.8, colorText, 2)

	b, err := EncodeJPEG(placeholder, 90)
	if err != nil {
		return nil
	}
	return b
}
