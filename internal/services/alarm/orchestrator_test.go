package alarm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeStore struct {
	mu     sync.Mutex
	alarms []string
	files  []models.FileRecord
}

func (s *fakeStore) AppendAlarm(_ context.Context, _ int64, _ string, message string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = append(s.alarms, message)
	return nil
}

func (s *fakeStore) AppendFile(_ context.Context, rec models.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, rec)
	return nil
}

func (s *fakeStore) filesOfType(kind string) []models.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FileRecord
	for _, f := range s.files {
		if f.FileType == kind {
			out = append(out, f)
		}
	}
	return out
}

type fakeRunner struct {
	mu       sync.Mutex
	payloads []WebhookPayload
}

func (r *fakeRunner) Run(_ context.Context, _ models.AlarmAction, p WebhookPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return nil
}

type fakeFrame struct{}

func (fakeFrame) WriteJPEG(path string) error {
	return os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xd9}, 0o644)
}

type fakeWriter struct {
	mu     sync.Mutex
	frames int
	closed bool
}

func (w *fakeWriter) Write(Frame) error {
	w.mu.Lock()
	w.frames++
	w.mu.Unlock()
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

type fakeTranscoder struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (t *fakeTranscoder) Transcode(_ context.Context, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = append(t.paths, path)
	return t.err
}

type harness struct {
	clock      *fakeClock
	store      *fakeStore
	runner     *fakeRunner
	transcoder *fakeTranscoder
	writers    []*fakeWriter
	orch       *Orchestrator
	settings   *models.GlobalSettings
	camera     *models.Camera
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	h := &harness{
		clock:      &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		store:      &fakeStore{},
		runner:     &fakeRunner{},
		transcoder: &fakeTranscoder{},
		settings: &models.GlobalSettings{
			VideoFolder:      filepath.Join(dir, "videos"),
			ScreenshotFolder: filepath.Join(dir, "shots"),
		},
		camera: &models.Camera{
			ID: 7, Name: "Front Door", AlarmTriggers: []string{"person"},
			AlarmAction: `{"action":"send_webhook","url":"http://hooks.local/alarm"}`,
		},
	}

	h.orch = New(7, Deps{
		Store:      h.store,
		Actions:    h.runner,
		Transcoder: h.transcoder,
		NewWriter: func(path string, fps float64, width, height int) (VideoWriter, error) {
			w := &fakeWriter{}
			h.writers = append(h.writers, w)
			return w, nil
		},
		Logger: zerolog.Nop(),
	}, Options{Now: h.clock.Now})
	return h
}

func (h *harness) step(active bool) Outcome {
	return h.orch.Step(context.Background(), Input{
		Camera: h.camera, Settings: h.settings, Trigger: "person", Active: active,
		Frame: fakeFrame{}, FPS: 0, Width: 640, Height: 480,
	})
}

func TestAlarmCooldown(t *testing.T) {
	h := newHarness(t)

	if out := h.step(true); out.Alarm == nil {
		t.Fatal("first trigger did not fire")
	}
	h.clock.Advance(5 * time.Second)
	if out := h.step(true); out.Alarm != nil {
		t.Fatal("alarm fired inside cooldown")
	}
	h.clock.Advance(5 * time.Second)
	if out := h.step(true); out.Alarm != nil {
		t.Fatal("alarm fired at exactly the cooldown boundary")
	}
	h.clock.Advance(time.Second)
	out := h.step(true)
	if out.Alarm == nil {
		t.Fatal("alarm did not fire after cooldown")
	}
	if out.Alarm.Message != "'person' detected" {
		t.Errorf("message = %q", out.Alarm.Message)
	}

	if err := h.orch.Close(time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(h.store.alarms) != 2 {
		t.Errorf("stored alarms = %v, want 2", h.store.alarms)
	}
	if len(h.runner.payloads) != 2 {
		t.Fatalf("action runs = %d, want 2", len(h.runner.payloads))
	}
	p := h.runner.payloads[0]
	if p.CameraID != 7 || p.Event != "alarm" || p.Trigger != "person" {
		t.Errorf("payload = %+v", p)
	}
}

func TestNoAlarmWithoutAction(t *testing.T) {
	h := newHarness(t)
	h.camera.AlarmAction = ""

	if out := h.step(true); out.Alarm != nil {
		t.Fatal("alarm fired without a configured action")
	}
	h.orch.Close(time.Second)
	if len(h.store.alarms) != 0 {
		t.Errorf("alarms = %v", h.store.alarms)
	}
}

func TestScreenshotNamingAndCooldown(t *testing.T) {
	h := newHarness(t)
	h.settings.SaveScreenshots = true

	out := h.step(true)
	if out.Screenshot != "front_door_alarm_20240102_030405.jpg" {
		t.Fatalf("screenshot = %q", out.Screenshot)
	}
	if _, err := os.Stat(filepath.Join(h.settings.ScreenshotFolder, out.Screenshot)); err != nil {
		t.Fatalf("screenshot file: %v", err)
	}

	h.clock.Advance(3 * time.Second)
	if out := h.step(true); out.Screenshot != "" {
		t.Errorf("screenshot inside cooldown: %q", out.Screenshot)
	}

	h.orch.Close(time.Second)
	if got := h.store.filesOfType(models.FileTypeScreenshot); len(got) != 1 {
		t.Errorf("screenshot records = %+v", got)
	}
}

func TestScreenshotsDisabled(t *testing.T) {
	h := newHarness(t)
	if out := h.step(true); out.Screenshot != "" {
		t.Errorf("screenshot taken while disabled: %q", out.Screenshot)
	}
	h.orch.Close(time.Second)
}

func TestRecordingSessionsMatchTrueRuns(t *testing.T) {
	h := newHarness(t)
	h.settings.SaveVideos = true

	flags := []bool{true, true, false, false, true, false, true}
	for _, f := range flags {
		h.step(f)
		h.clock.Advance(time.Second)
	}

	if !h.orch.Recording() {
		t.Fatal("final true run should leave a session open")
	}
	if err := h.orch.Close(time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(h.writers) != 3 {
		t.Fatalf("sessions = %d, want 3", len(h.writers))
	}
	for i, w := range h.writers {
		if !w.closed {
			t.Errorf("writer %d not closed", i)
		}
	}
	// true, true, then the stopping false frame
	if h.writers[0].frames != 3 {
		t.Errorf("first session frames = %d, want 3", h.writers[0].frames)
	}
	if len(h.transcoder.paths) != 3 {
		t.Errorf("transcodes = %v", h.transcoder.paths)
	}
	videos := h.store.filesOfType(models.FileTypeVideo)
	if len(videos) != 3 {
		t.Fatalf("video records = %+v", videos)
	}
	if !strings.HasPrefix(videos[0].Filename, "front_door_alarm_") || !strings.HasSuffix(videos[0].Filename, ".mp4") {
		t.Errorf("video filename = %q", videos[0].Filename)
	}
}

func TestFailedTranscodeSkipsRecordUnlessForced(t *testing.T) {
	h := newHarness(t)
	h.settings.SaveVideos = true
	h.transcoder.err = errors.New("ffmpeg missing")

	h.step(true)
	h.clock.Advance(time.Second)
	h.step(false)
	h.clock.Advance(time.Second)
	h.step(true)

	h.orch.Close(time.Second)

	videos := h.store.filesOfType(models.FileTypeVideo)
	if len(videos) != 1 {
		t.Fatalf("video records = %+v, want only the forced one", videos)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Close(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.Close(time.Second); err != nil {
		t.Fatal(err)
	}
}
