package analysis

import (
	"image"
	"testing"

	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/models"
)

func tracked(id int, class string, cx, cy int) models.Detection {
	return models.Detection{
		Kind: models.KindTracked, Class: class, TrackID: id, HasTrackID: true,
		Box: image.Rect(cx-10, cy-10, cx+10, cy+10),
	}
}

func face(cx, cy int) models.Detection {
	return models.Detection{Kind: models.KindAuxiliary, Class: "face", Confidence: 0.95, Box: image.Rect(cx-5, cy-5, cx+5, cy+5)}
}

func newAnalyzer() *Analyzer {
	return New(100, 50, "person", zerolog.Nop())
}

func TestAnalyzeCountsOnlyPersons(t *testing.T) {
	a := newAnalyzer()
	cam := &models.Camera{ID: 1, CountingLine: `{"x1":0.5,"y1":0,"x2":0.5,"y2":1}`}

	a.Analyze(cam, []models.Detection{tracked(1, "person", 200, 240), tracked(2, "car", 200, 100)}, true, 640, 480)
	res := a.Analyze(cam, []models.Detection{tracked(1, "person", 500, 240), tracked(2, "car", 500, 100)}, true, 640, 480)

	if len(res.Crossings) != 1 {
		t.Fatalf("crossings = %+v, want one", res.Crossings)
	}
	if res.Crossings[0].TrackID != 1 || res.Crossings[0].Direction != models.DirectionOut {
		t.Errorf("crossing = %+v", res.Crossings[0])
	}
	if res.Line == nil {
		t.Error("line missing from result")
	}
}

func TestAnalyzeMalformedLineMeansNoCounting(t *testing.T) {
	a := newAnalyzer()
	cam := &models.Camera{ID: 1, CountingLine: `{"x1":`}

	a.Analyze(cam, []models.Detection{tracked(1, "person", 200, 240)}, true, 640, 480)
	res := a.Analyze(cam, []models.Detection{tracked(1, "person", 500, 240)}, true, 640, 480)

	if res.Line != nil || len(res.Crossings) != 0 {
		t.Errorf("malformed line produced line=%v crossings=%v", res.Line, res.Crossings)
	}
	if len(res.Tracks) != 1 {
		t.Errorf("tracks = %+v", res.Tracks)
	}
}

func TestAnalyzeAlarmIncludesAuxiliary(t *testing.T) {
	a := newAnalyzer()
	cam := &models.Camera{ID: 1, AlarmTriggers: []string{"face"}}

	res := a.Analyze(cam, []models.Detection{tracked(1, "person", 10, 10), face(50, 50)}, true, 640, 480)
	if !res.AlarmActive || res.Trigger != "face" {
		t.Errorf("alarm = %v trigger = %q", res.AlarmActive, res.Trigger)
	}
	if len(res.Auxiliary) != 1 || len(res.Tracks) != 1 {
		t.Errorf("aux=%d tracks=%d", len(res.Auxiliary), len(res.Tracks))
	}

	res = a.Analyze(cam, []models.Detection{tracked(1, "person", 10, 10)}, true, 640, 480)
	if res.AlarmActive {
		t.Error("alarm active without trigger class")
	}
}

func TestAnalyzeGreedyMode(t *testing.T) {
	a := newAnalyzer()
	cam := &models.Camera{ID: 1, CountingLine: `{"x1":0.5,"y1":0,"x2":0.5,"y2":1}`}

	untracked := func(cx int) models.Detection {
		return models.Detection{Kind: models.KindTracked, Class: "person", Box: image.Rect(cx-10, 230, cx+10, 250)}
	}

	a.Analyze(cam, []models.Detection{untracked(280)}, false, 640, 480)
	res := a.Analyze(cam, []models.Detection{untracked(360)}, false, 640, 480)

	if len(res.Tracks) != 1 || res.Tracks[0].ID != 1 {
		t.Fatalf("tracks = %+v", res.Tracks)
	}
	if len(res.Crossings) != 1 {
		t.Fatalf("crossings = %+v", res.Crossings)
	}
}
