package models

import (
	"image"
	"time"
)

// DetectionKind separates tracked objects from auxiliary detections that never get an identity.
type DetectionKind int

const (
	KindTracked DetectionKind = iota
	KindAuxiliary
)

func (k DetectionKind) String() string {
	switch k {
	case KindTracked:
		return "tracked"
	case KindAuxiliary:
		return "auxiliary"
	default:
		return "unknown"
	}
}

// Detection is one object found in one frame.
type Detection struct {
	Kind       DetectionKind
	Class      string
	Confidence float64
	Box        image.Rectangle

	// TrackID is only meaningful when HasTrackID is set.
	TrackID    int
	HasTrackID bool
}

// Center is the integer center of the box.
func (d Detection) Center() image.Point {
	return image.Pt((d.Box.Min.X+d.Box.Max.X)/2, (d.Box.Min.Y+d.Box.Max.Y)/2)
}

// Direction of a confirmed crossing.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Counts is the in/out tally of one camera.
type Counts struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// Add increments the side matching d.
func (c *Counts) Add(d Direction) {
	if d == DirectionIn {
		c.In++
	} else {
		c.Out++
	}
}

// CountEvent is emitted once per confirmed crossing.
type CountEvent struct {
	CameraID   int64     `json:"camera_id"`
	CameraName string    `json:"camera_name"`
	Direction  Direction `json:"direction"`
	TrackID    int       `json:"track_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlarmEvent is emitted once per cooldown-gated alarm.
type AlarmEvent struct {
	CameraID   int64     `json:"camera_id"`
	CameraName string    `json:"camera_name"`
	Trigger    string    `json:"trigger"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
