package pipeline

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/alarm"
	"linewatch-worker-go/internal/services/analysis"
	"linewatch-worker-go/internal/services/storage"
)

type fakeFrame struct {
	dets      []models.Detection
	annotated bool
}

func (f *fakeFrame) Size() (int, int) { return 640, 480 }

func (f *fakeFrame) Annotate(analysis.Result, models.Counts) { f.annotated = true }

func (f *fakeFrame) EncodeJPEG(int) ([]byte, error) { return []byte("jpeg"), nil }

func (f *fakeFrame) WriteJPEG(path string) error { return os.WriteFile(path, []byte("jpeg"), 0o644) }

func person(id, cx, cy int) models.Detection {
	return models.Detection{
		Kind: models.KindTracked, Class: "person", Confidence: 0.9, TrackID: id, HasTrackID: true,
		Box: image.Rect(cx-10, cy-10, cx+10, cy+10),
	}
}

type fakeSource struct {
	frames []*fakeFrame
	repeat bool
	next   int
	closed bool
}

func (s *fakeSource) Read() (Frame, bool) {
	if s.repeat {
		return s.frames[0], true
	}
	if s.next >= len(s.frames) {
		return nil, false
	}
	f := s.frames[s.next]
	s.next++
	return f, true
}

func (s *fakeSource) FPS() float64 { return 10 }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeDetector struct {
	calls    int
	onDetect func(call int)
	closed   bool
}

func (d *fakeDetector) Detect(f Frame) ([]models.Detection, error) {
	d.calls++
	if d.onDetect != nil {
		d.onDetect(d.calls)
	}
	return f.(*fakeFrame).dets, nil
}

func (d *fakeDetector) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDetector) NativeTracking() bool { return true }
func (d *fakeDetector) Name() string         { return "fake" }

type fakeWriter struct {
	mu     sync.Mutex
	writes int
	closed bool
}

func (w *fakeWriter) Write(alarm.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// fakeVision hands out one scripted source per open; opens past the script fail.
type fakeVision struct {
	sources []*fakeSource
	opens   int
	det     *fakeDetector
	detErr  error
	writers []*fakeWriter
}

func (v *fakeVision) OpenSource(string, zerolog.Logger) (Source, error) {
	v.opens++
	if v.opens > len(v.sources) {
		return nil, errors.New("stream unreachable")
	}
	return v.sources[v.opens-1], nil
}

func (v *fakeVision) OpenDetector(context.Context, DetectorRequest) (Detector, error) {
	if v.detErr != nil {
		return nil, v.detErr
	}
	return v.det, nil
}

func (v *fakeVision) NewWriter(string, float64, int, int) (alarm.VideoWriter, error) {
	w := &fakeWriter{}
	v.writers = append(v.writers, w)
	return w, nil
}

type failingTranscoder struct{}

func (failingTranscoder) Transcode(context.Context, string) error { return errors.New("ffmpeg missing") }

type recordedEvents struct {
	mu       sync.Mutex
	statuses []string
	counts   []models.Counts
}

func (e *recordedEvents) Broadcast(event string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch event {
	case models.EventStatus:
		e.statuses = append(e.statuses, data.(models.StatusEvent).Message)
	case models.EventCountUpdate:
		e.counts = append(e.counts, data.(models.CountUpdate).Counts)
	}
}

func (e *recordedEvents) SendTo([]string, string, any) {}

func (e *recordedEvents) has(message string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.statuses {
		if strings.HasPrefix(s, message) {
			return true
		}
	}
	return false
}

// countingStore records count directions and refuses writes on a cancelled context.
type countingStore struct {
	*storage.MemoryStore
	mu   sync.Mutex
	dirs []models.Direction
}

func (s *countingStore) AppendCount(ctx context.Context, cameraID int64, name string, dir models.Direction, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.dirs = append(s.dirs, dir)
	s.mu.Unlock()
	return s.MemoryStore.AppendCount(ctx, cameraID, name, dir, at)
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		FrameInterval:           time.Millisecond,
		StopGracePeriod:         2 * time.Second,
		TrackingRadius:          100,
		RearmDistance:           50,
		CountedClass:            "person",
		JPEGQuality:             80,
		DefaultConfThreshold:    0.4,
		DefaultIoUThreshold:     0.7,
		DefaultVideoFolder:      t.TempDir(),
		DefaultScreenshotFolder: t.TempDir(),
		Reconnect:               config.ReconnectPolicy{MaxAttempts: 2, BackoffMin: time.Millisecond, BackoffMax: 2 * time.Millisecond},
	}
}

type harness struct {
	store  *countingStore
	vision *fakeVision
	events *recordedEvents
	deps   Deps
}

func newHarness(t *testing.T, sources ...*fakeSource) *harness {
	t.Helper()
	h := &harness{
		store:  &countingStore{MemoryStore: storage.NewMemoryStore()},
		vision: &fakeVision{sources: sources, det: &fakeDetector{}},
		events: &recordedEvents{},
	}
	h.deps = Deps{
		Config:     testConfig(t),
		Store:      h.store,
		Events:     h.events,
		Vision:     h.vision,
		Transcoder: failingTranscoder{},
		Logger:     zerolog.Nop(),
	}
	return h
}

func (h *harness) addCamera(t *testing.T, cam *models.Camera) *models.Camera {
	t.Helper()
	ctx := context.Background()
	if cam.SourceURI == "" {
		cam.SourceURI = "rtsp://" + cam.Name
	}
	if err := h.store.CreateCamera(ctx, cam); err != nil {
		t.Fatalf("create camera: %v", err)
	}
	if err := h.store.SetAIEnabled(ctx, cam.ID, true); err != nil {
		t.Fatalf("enable ai: %v", err)
	}
	return cam
}

func run(t *testing.T, ctx context.Context, l *Loop) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit")
	}
	if l.State() != StateStopped.String() {
		t.Errorf("state = %s, want stopped", l.State())
	}
}

func TestLoopReconnectsOnceThenGivesUp(t *testing.T) {
	first := &fakeSource{frames: []*fakeFrame{{}, {}}}
	second := &fakeSource{frames: []*fakeFrame{{}}}
	h := newHarness(t, first, second)
	cam := h.addCamera(t, &models.Camera{Name: "door"})

	run(t, context.Background(), New(cam.ID, h.deps))

	// start, one successful reopen, then two failed attempts
	if h.vision.opens != 4 {
		t.Errorf("opens = %d, want 4", h.vision.opens)
	}
	if h.vision.det.calls != 3 {
		t.Errorf("frames analyzed = %d, want 3", h.vision.det.calls)
	}
	if !first.closed || !second.closed {
		t.Error("sources not released")
	}
	if !h.events.has("Could not reconnect to video stream") || !h.events.has("AI live view stopped") {
		t.Errorf("statuses = %v", h.events.statuses)
	}
	if !h.vision.det.closed {
		t.Error("detector not closed")
	}
}

func TestLoopExitsWhenCameraChanges(t *testing.T) {
	tests := []struct {
		name   string
		change func(ctx context.Context, s storage.Store, id int64) error
	}{
		{"ai disabled", func(ctx context.Context, s storage.Store, id int64) error { return s.SetAIEnabled(ctx, id, false) }},
		{"camera deleted", func(ctx context.Context, s storage.Store, id int64) error { return s.DeleteCamera(ctx, id) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{frames: []*fakeFrame{{}}, repeat: true}
			h := newHarness(t, src)
			cam := h.addCamera(t, &models.Camera{Name: "hall"})
			h.vision.det.onDetect = func(call int) {
				if call == 1 {
					if err := tt.change(context.Background(), h.store, cam.ID); err != nil {
						t.Errorf("change camera: %v", err)
					}
				}
			}

			run(t, context.Background(), New(cam.ID, h.deps))

			if h.vision.det.calls != 1 {
				t.Errorf("frames analyzed = %d, want 1", h.vision.det.calls)
			}
			if h.vision.opens != 1 || !src.closed {
				t.Errorf("opens = %d closed = %v", h.vision.opens, src.closed)
			}
			if !h.events.has("AI live view stopped") {
				t.Errorf("statuses = %v", h.events.statuses)
			}
		})
	}
}

func TestLoopStartupFailureIsNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		camera  bool
		sources []*fakeSource
		detErr  error
		want    string
	}{
		{"camera missing", false, []*fakeSource{{}}, nil, "Camera not found"},
		{"model fails to load", true, []*fakeSource{{}}, errors.New("weights missing"), "Failed to load AI model: weights missing"},
		{"stream unreachable", true, nil, nil, "Could not open video stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.sources...)
			h.vision.detErr = tt.detErr
			id := int64(42)
			if tt.camera {
				id = h.addCamera(t, &models.Camera{Name: "yard"}).ID
			}

			run(t, context.Background(), New(id, h.deps))

			if !h.events.has(tt.want) {
				t.Errorf("statuses = %v, want %q", h.events.statuses, tt.want)
			}
			if h.vision.opens > 1 {
				t.Errorf("source opened %d times", h.vision.opens)
			}
			if h.vision.det.calls != 0 {
				t.Errorf("frames analyzed = %d", h.vision.det.calls)
			}
			if tt.name == "stream unreachable" && !h.vision.det.closed {
				t.Error("detector leaked after stream failure")
			}
		})
	}
}

func TestLoopStopFlushesOpenRecording(t *testing.T) {
	frames := []*fakeFrame{
		{dets: []models.Detection{person(1, 100, 100)}},
		{dets: []models.Detection{person(1, 110, 100)}},
		{dets: []models.Detection{person(1, 120, 100)}},
	}
	h := newHarness(t, &fakeSource{frames: frames})
	h.deps.Config.Reconnect.MaxAttempts = 1
	ctx := context.Background()
	cam := h.addCamera(t, &models.Camera{Name: "dock", AlarmTriggers: []string{"person"}})
	if err := h.store.SaveSettings(ctx, &models.GlobalSettings{SaveVideos: true, VideoFolder: t.TempDir()}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	run(t, ctx, New(cam.ID, h.deps))

	if len(h.vision.writers) != 1 {
		t.Fatalf("writers = %d, want 1", len(h.vision.writers))
	}
	w := h.vision.writers[0]
	if w.writes != 3 || !w.closed {
		t.Errorf("writer writes = %d closed = %v", w.writes, w.closed)
	}
	for _, f := range frames {
		if !f.annotated {
			t.Error("frame not annotated")
		}
	}

	files, err := h.store.ListFiles(ctx, models.FileTypeVideo)
	if err != nil || len(files) != 1 || files[0].CameraID != cam.ID {
		t.Fatalf("video records = %+v, %v", files, err)
	}
	if !strings.HasPrefix(files[0].Filename, cam.SanitizedName()+"_alarm_") {
		t.Errorf("filename = %s", files[0].Filename)
	}
}

func TestLoopRecordsCrossingsInOrder(t *testing.T) {
	frames := []*fakeFrame{
		{dets: []models.Detection{person(1, 200, 240), person(2, 500, 240)}},
		{dets: []models.Detection{person(1, 500, 240), person(2, 200, 240)}},
	}
	h := newHarness(t, &fakeSource{frames: frames})
	cam := h.addCamera(t, &models.Camera{Name: "gate", CountingLine: `{"x1":0.5,"y1":0,"x2":0.5,"y2":1}`})

	// stop requested while the second frame is in flight; its counts must still be stored
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.vision.det.onDetect = func(call int) {
		if call == 2 {
			cancel()
		}
	}

	l := New(cam.ID, h.deps)
	run(t, ctx, l)

	want := []models.Direction{models.DirectionOut, models.DirectionIn}
	h.store.mu.Lock()
	got := append([]models.Direction(nil), h.store.dirs...)
	h.store.mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("stored directions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("direction %d = %s, want %s", i, got[i], want[i])
		}
	}

	if c := l.Counts(); c.In != 1 || c.Out != 1 {
		t.Errorf("counts = %+v", c)
	}
	h.events.mu.Lock()
	defer h.events.mu.Unlock()
	// one update at start and one for the frame with crossings
	if len(h.events.counts) != 2 || h.events.counts[1] != (models.Counts{In: 1, Out: 1}) {
		t.Errorf("count updates = %+v", h.events.counts)
	}
}
