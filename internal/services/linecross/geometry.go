package linecross

import (
	"image"
	"math"

	"linewatch-worker-go/internal/models"
)

// Orientation of the ordered triple.
const (
	Collinear        = 0
	Clockwise        = 1
	CounterClockwise = 2
)

// Line is a counting line in pixel coordinates.
type Line struct {
	P1, P2 image.Point
}

// ToPixels scales a normalized line to a frame of width w and height h.
func ToPixels(l models.CountingLine, w, h int) Line {
	return Line{
		P1: image.Pt(int(l.X1*float64(w)), int(l.Y1*float64(h))),
		P2: image.Pt(int(l.X2*float64(w)), int(l.Y2*float64(h))),
	}
}

// Degenerate reports a zero-length line.
func (l Line) Degenerate() bool {
	return l.P1 == l.P2
}

// Length in pixels.
func (l Line) Length() float64 {
	return math.Hypot(float64(l.P2.X-l.P1.X), float64(l.P2.Y-l.P1.Y))
}

// Orientation classifies the turn p -> q -> r.
func Orientation(p, q, r image.Point) int {
	val := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	switch {
	case val == 0:
		return Collinear
	case val > 0:
		return Clockwise
	default:
		return CounterClockwise
	}
}

// onSegment reports whether q lies within the bounding box of p and r.
func onSegment(p, q, r image.Point) bool {
	return q.X <= max(p.X, r.X) && q.X >= min(p.X, r.X) &&
		q.Y <= max(p.Y, r.Y) && q.Y >= min(p.Y, r.Y)
}

// Intersects reports whether segment p1-q1 meets segment p2-q2.
func Intersects(p1, q1, p2, q2 image.Point) bool {
	o1 := Orientation(p1, q1, p2)
	o2 := Orientation(p1, q1, q2)
	o3 := Orientation(p2, q2, p1)
	o4 := Orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == Collinear && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == Collinear && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == Collinear && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == Collinear && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

// Crosses reports whether the movement prev -> cur crosses the line. A degenerate line never does.
func (l Line) Crosses(prev, cur image.Point) bool {
	if l.Degenerate() {
		return false
	}
	return Intersects(l.P1, l.P2, prev, cur)
}

// Side is the 2D cross product of (P2-P1) against c-P1.
func (l Line) Side(c image.Point) int {
	return (l.P2.X-l.P1.X)*(c.Y-l.P1.Y) - (l.P2.Y-l.P1.Y)*(c.X-l.P1.X)
}

// Direction of a crossing that started at prev: out when prev is on the positive side.
func (l Line) Direction(prev image.Point) models.Direction {
	if l.Side(prev) > 0 {
		return models.DirectionOut
	}
	return models.DirectionIn
}

// Distance is the perpendicular distance from c to the infinite line, +Inf for a degenerate line.
func (l Line) Distance(c image.Point) float64 {
	length := l.Length()
	if length == 0 {
		return math.Inf(1)
	}
	x1, y1 := float64(l.P1.X), float64(l.P1.Y)
	x2, y2 := float64(l.P2.X), float64(l.P2.Y)
	cx, cy := float64(c.X), float64(c.Y)
	return math.Abs((y2-y1)*cx-(x2-x1)*cy+x2*y1-y2*x1) / length
}

// LabelPositions returns where the IN and OUT markers are drawn, 20px either side of the midpoint.
func (l Line) LabelPositions() (in, out image.Point) {
	mid := image.Pt((l.P1.X+l.P2.X)/2, (l.P1.Y+l.P2.Y)/2)
	length := l.Length()
	if length == 0 {
		return mid, mid
	}

	dx := float64(l.P2.X - l.P1.X)
	dy := float64(l.P2.Y - l.P1.Y)
	ox := int(-dy / length * 20)
	oy := int(dx / length * 20)

	return image.Pt(mid.X+ox, mid.Y+oy), image.Pt(mid.X-ox, mid.Y-oy)
}
