package analysis

import (
	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/linecross"
	"linewatch-worker-go/internal/services/tracker"
)

// Result is everything one frame produced for counting, alarms and annotation.
type Result struct {
	Tracks    []tracker.Track
	Auxiliary []models.Detection
	Crossings []linecross.Crossing

	// Line is nil when the camera has no usable counting line.
	Line *linecross.Line

	// Trigger is the first detected class that matches the camera's alarm triggers.
	Trigger     string
	AlarmActive bool
}

// Analyzer runs identity tracking, line crossing and the alarm condition for one camera.
type Analyzer struct {
	tracker      *tracker.Tracker
	counter      *linecross.Counter
	countedClass string
	logger       zerolog.Logger
}

func New(trackingRadius, rearmDistance float64, countedClass string, logger zerolog.Logger) *Analyzer {
	if countedClass == "" {
		countedClass = "person"
	}
	return &Analyzer{
		tracker:      tracker.New(trackingRadius),
		counter:      linecross.NewCounter(rearmDistance),
		countedClass: countedClass,
		logger:       logger,
	}
}

// Tracker exposes the identity map, shared with annotation and tests.
func (a *Analyzer) Tracker() *tracker.Tracker {
	return a.tracker
}

// Analyze processes one frame of detections for cam on a frame of width w and height h.
func (a *Analyzer) Analyze(cam *models.Camera, dets []models.Detection, native bool, w, h int) Result {
	var res Result

	for _, d := range dets {
		if d.Kind == models.KindAuxiliary {
			res.Auxiliary = append(res.Auxiliary, d)
		}
	}
	res.Tracks = a.tracker.Update(dets, native)

	line, err := models.ParseCountingLine(cam.CountingLine)
	if err != nil {
		a.logger.Error().Err(err).Msg("Ignoring malformed counting line")
		line = nil
	}
	if line != nil {
		px := linecross.ToPixels(*line, w, h)
		res.Line = &px

		candidates := make([]tracker.Track, 0, len(res.Tracks))
		for _, tk := range res.Tracks {
			if tk.Class == a.countedClass {
				candidates = append(candidates, tk)
			}
		}
		res.Crossings = a.counter.Process(px, candidates, a.tracker)
	}

	res.Trigger, res.AlarmActive = matchTrigger(cam, res.Tracks, res.Auxiliary)
	return res
}

func matchTrigger(cam *models.Camera, tracks []tracker.Track, aux []models.Detection) (string, bool) {
	if len(cam.AlarmTriggers) == 0 {
		return "", false
	}
	for _, tk := range tracks {
		if cam.HasTrigger(tk.Class) {
			return tk.Class, true
		}
	}
	for _, d := range aux {
		if cam.HasTrigger(d.Class) {
			return d.Class, true
		}
	}
	return "", false
}
