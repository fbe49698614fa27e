package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidLine   = errors.New("invalid counting line")
	ErrInvalidAction = errors.New("invalid alarm action")
)

// Camera is the persisted camera configuration read by the pipeline on every frame.
type Camera struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Location             string    `json:"location"`
	SourceURI            string    `json:"source_uri"`
	AIEnabled            bool      `json:"ai_enabled"`
	FaceDetectionEnabled bool      `json:"face_detection_enabled"`
	CountingLine         string    `json:"counting_line,omitempty"`
	AlarmTriggers        []string  `json:"alarm_triggers,omitempty"`
	AlarmAction          string    `json:"alarm_action,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// SanitizedName is the camera name used in artifact file names.
func (c *Camera) SanitizedName() string {
	return strings.ToLower(strings.ReplaceAll(c.Name, " ", "_"))
}

// HasTrigger reports whether class is one of the configured alarm triggers.
func (c *Camera) HasTrigger(class string) bool {
	for _, t := range c.AlarmTriggers {
		if t == class {
			return true
		}
	}
	return false
}

// CountingLine holds the two endpoints of a counting line in normalized [0,1] coordinates.
type CountingLine struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Validate checks that every coordinate is normalized.
func (l CountingLine) Validate() error {
	for _, v := range []float64{l.X1, l.Y1, l.X2, l.Y2} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: coordinate %v outside [0,1]", ErrInvalidLine, v)
		}
	}
	return nil
}

// ParseCountingLine decodes the stored line. An empty value means no line and yields (nil, nil).
func ParseCountingLine(raw string) (*CountingLine, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var fields map[string]*float64
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}
	for _, k := range []string{"x1", "y1", "x2", "y2"} {
		if fields[k] == nil {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidLine, k)
		}
	}

	return &CountingLine{X1: *fields["x1"], Y1: *fields["y1"], X2: *fields["x2"], Y2: *fields["y2"]}, nil
}

// Encode returns the stored JSON form of the line.
func (l CountingLine) Encode() string {
	b, _ := json.Marshal(l)
	return string(b)
}

const (
	ActionWebhook = "send_webhook"
	ActionScript  = "custom_script"
)

type BasicAuth struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// AlarmAction is the side effect executed when an alarm fires.
type AlarmAction struct {
	Action  string     `json:"action"`
	URL     string     `json:"url,omitempty"`
	Auth    *BasicAuth `json:"auth,omitempty"`
	Command string     `json:"command,omitempty"`
}

// ParseAlarmAction decodes the stored action. An empty value yields (nil, nil).
func ParseAlarmAction(raw string) (*AlarmAction, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var a AlarmAction
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	return &a, nil
}

// Validate checks that the action carries what its type needs.
func (a AlarmAction) Validate() error {
	switch a.Action {
	case ActionWebhook:
		if a.URL == "" {
			return fmt.Errorf("%w: webhook url is required", ErrInvalidAction)
		}
	case ActionScript:
		if a.Command == "" {
			return fmt.Errorf("%w: command is required", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Action)
	}
	return nil
}

// CameraRequest is the body for creating or updating a camera.
type CameraRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Location             string   `json:"location"`
	SourceURI            string   `json:"source_uri" binding:"required"`
	FaceDetectionEnabled bool     `json:"face_detection_enabled"`
	AlarmTriggers        []string `json:"alarm_triggers"`
}

// CameraStatus is the entry of the initial_status list sent to a new viewer.
type CameraStatus struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	AIEnabled bool   `json:"is_ai_enabled"`
	Running   bool   `json:"running"`
}
