package models

import (
	"errors"
	"image"
	"testing"
)

func TestParseCountingLine(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *CountingLine
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"null", "null", nil, false},
		{"valid", `{"x1":0.5,"y1":0,"x2":0.5,"y2":1}`, &CountingLine{X1: 0.5, Y1: 0, X2: 0.5, Y2: 1}, false},
		{"missing field", `{"x1":0.5,"y1":0,"x2":0.5}`, nil, true},
		{"malformed", `{"x1":`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCountingLine(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLine) {
					t.Fatalf("err = %v, want ErrInvalidLine", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCountingLineValidate(t *testing.T) {
	if err := (CountingLine{X1: 0, Y1: 0, X2: 1, Y2: 1}).Validate(); err != nil {
		t.Errorf("unit square line rejected: %v", err)
	}
	if err := (CountingLine{X1: -0.1, Y1: 0, X2: 1, Y2: 1}).Validate(); !errors.Is(err, ErrInvalidLine) {
		t.Errorf("negative coordinate accepted: %v", err)
	}
	if err := (CountingLine{X1: 0, Y1: 0, X2: 1.5, Y2: 1}).Validate(); !errors.Is(err, ErrInvalidLine) {
		t.Errorf("coordinate above one accepted: %v", err)
	}
}

func TestParseAlarmAction(t *testing.T) {
	a, err := ParseAlarmAction(`{"action":"send_webhook","url":"http://x","auth":{"user":"u","pass":"p"}}`)
	if err != nil {
		t.Fatalf("ParseAlarmAction: %v", err)
	}
	if a.Action != ActionWebhook || a.Auth == nil || a.Auth.User != "u" {
		t.Errorf("unexpected action %+v", a)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	if a, err := ParseAlarmAction(""); a != nil || err != nil {
		t.Errorf("empty action = %v, %v", a, err)
	}
	if err := (AlarmAction{Action: "launch_rocket"}).Validate(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("unknown action accepted: %v", err)
	}
	if err := (AlarmAction{Action: ActionScript}).Validate(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("script without command accepted: %v", err)
	}
}

func TestResolveThresholds(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	defaults := Thresholds{Confidence: 0.4, IoU: 0.7}

	got := ResolveThresholds(nil, nil, defaults)
	if got != defaults {
		t.Errorf("defaults = %+v", got)
	}

	settings := &GlobalSettings{ConfThreshold: f(0.3)}
	got = ResolveThresholds(nil, settings, defaults)
	if got.Confidence != 0.3 || got.IoU != 0.7 {
		t.Errorf("global = %+v", got)
	}

	model := &AIModel{IoUThreshold: f(0.5)}
	got = ResolveThresholds(model, settings, defaults)
	if got.Confidence != 0.3 || got.IoU != 0.5 {
		t.Errorf("model over global = %+v", got)
	}
}

func TestCameraHelpers(t *testing.T) {
	c := &Camera{Name: "Front Door", AlarmTriggers: []string{"person", "face"}}
	if got := c.SanitizedName(); got != "front_door" {
		t.Errorf("SanitizedName = %q", got)
	}
	if !c.HasTrigger("face") || c.HasTrigger("car") {
		t.Error("HasTrigger mismatch")
	}
}

func TestDetectionCenterAndDisplayName(t *testing.T) {
	d := Detection{Box: image.Rect(10, 20, 30, 41)}
	if got := d.Center(); got != image.Pt(20, 30) {
		t.Errorf("Center = %v", got)
	}

	id := int64(3)
	if got := DisplayName(&id, "Lobby"); got != "Lobby" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := DisplayName(nil, "Lobby"); got != "Lobby (deleted)" {
		t.Errorf("DisplayName deleted = %q", got)
	}
}
