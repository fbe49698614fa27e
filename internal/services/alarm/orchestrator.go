package alarm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"linewatch-worker-go/internal/models"
)

const timestampLayout = "20060102_150405"

// Frame is an annotated frame that can be saved as a JPEG.
type Frame interface {
	WriteJPEG(path string) error
}

// VideoWriter receives frames of one recording session.
type VideoWriter interface {
	Write(frame Frame) error
	Close() error
}

// WriterFactory opens a writer for path at the capture's fps and size.
type WriterFactory func(path string, fps float64, width, height int) (VideoWriter, error)

// Store persists alarm and artifact records.
type Store interface {
	AppendAlarm(ctx context.Context, cameraID int64, cameraName, message string, at time.Time) error
	AppendFile(ctx context.Context, rec models.FileRecord) error
}

// Uploader copies finished artifacts to object storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectName string) error
}

// Deps are the collaborators of an Orchestrator. Publisher and Uploader may be nil.
type Deps struct {
	Store      Store
	Actions    ActionRunner
	Transcoder Transcoder
	NewWriter  WriterFactory
	Publisher  models.EventPublisher
	Uploader   Uploader
	Logger     zerolog.Logger
}

// Options tune cooldowns and task bounds.
type Options struct {
	AlarmCooldown      time.Duration
	ScreenshotCooldown time.Duration
	ActionTimeout      time.Duration
	ActionWorkers      int
	VideoFolder        string
	ScreenshotFolder   string
	Now                func() time.Time
}

// Input is the per-frame view the orchestrator acts on.
type Input struct {
	Camera   *models.Camera
	Settings *models.GlobalSettings
	Trigger  string
	Active   bool
	Frame    Frame
	FPS      float64
	Width    int
	Height   int
}

// Outcome reports what a step did.
type Outcome struct {
	Alarm            *models.AlarmEvent
	Screenshot       string
	RecordingStarted string
	RecordingStopped string
}

type session struct {
	writer   VideoWriter
	path     string
	filename string
}

// Orchestrator drives cooldown-gated alarms, screenshots and recording sessions for one camera.
// Step and Close must be called from the camera's loop goroutine.
type Orchestrator struct {
	cameraID int64
	deps     Deps
	opts     Options

	mu             sync.Mutex
	lastAlarm      time.Time
	lastScreenshot time.Time
	recording      *session
	closed         bool

	actions   errgroup.Group
	artifacts errgroup.Group
}

func New(cameraID int64, deps Deps, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AlarmCooldown <= 0 {
		opts.AlarmCooldown = 10 * time.Second
	}
	if opts.ScreenshotCooldown <= 0 {
		opts.ScreenshotCooldown = 10 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 30 * time.Second
	}
	if opts.VideoFolder == "" {
		opts.VideoFolder = "static/videos"
	}
	if opts.ScreenshotFolder == "" {
		opts.ScreenshotFolder = "static/screenshots"
	}
	if deps.Transcoder == nil {
		deps.Transcoder = FFmpeg{}
	}

	o := &Orchestrator{cameraID: cameraID, deps: deps, opts: opts}
	if opts.ActionWorkers > 0 {
		o.actions.SetLimit(opts.ActionWorkers)
	}
	return o
}

// Recording reports whether a session is open.
func (o *Orchestrator) Recording() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recording != nil
}

// Step applies one frame's alarm condition.
func (o *Orchestrator) Step(ctx context.Context, in Input) Outcome {
	var out Outcome
	cam := in.Camera
	now := o.opts.Now()

	o.mu.Lock()
	fireAlarm := in.Active && cam.AlarmAction != "" && o.elapsed(now, o.lastAlarm, o.opts.AlarmCooldown)
	if fireAlarm {
		o.lastAlarm = now
	}
	takeShot := in.Active && in.Settings != nil && in.Settings.SaveScreenshots &&
		o.elapsed(now, o.lastScreenshot, o.opts.ScreenshotCooldown)
	if takeShot {
		o.lastScreenshot = now
	}
	o.mu.Unlock()

	if fireAlarm {
		out.Alarm = o.fireAlarm(ctx, cam, in.Trigger, now)
	} else if in.Active && cam.AlarmAction != "" {
		o.deps.Logger.Debug().Str("trigger", in.Trigger).Msg("Alarm object detected, still in cooldown")
	}

	if takeShot && in.Frame != nil {
		out.Screenshot = o.screenshot(ctx, cam, in.Settings, in.Frame, now)
	}

	if in.Active && in.Settings != nil && in.Settings.SaveVideos && !o.Recording() {
		out.RecordingStarted = o.startRecording(cam, in, now)
	}

	o.mu.Lock()
	rec := o.recording
	o.mu.Unlock()

	if rec != nil {
		if in.Frame != nil {
			if err := rec.writer.Write(in.Frame); err != nil {
				o.deps.Logger.Error().Err(err).Str("path", rec.path).Msg("Failed to write recording frame")
			}
		}
		if !in.Active {
			o.stopRecording(rec, false)
			out.RecordingStopped = rec.filename
		}
	}

	return out
}

// elapsed is true when no previous timestamp exists or strictly more than cooldown has passed.
func (o *Orchestrator) elapsed(now, last time.Time, cooldown time.Duration) bool {
	return last.IsZero() || now.Sub(last) > cooldown
}

func (o *Orchestrator) fireAlarm(ctx context.Context, cam *models.Camera, trigger string, now time.Time) *models.AlarmEvent {
	event := &models.AlarmEvent{
		CameraID:   cam.ID,
		CameraName: cam.Name,
		Trigger:    trigger,
		Message:    fmt.Sprintf("'%s' detected", trigger),
		Timestamp:  now,
	}

	o.deps.Logger.Warn().Str("trigger", trigger).Msg("ALARM: trigger object detected, dispatching action")

	if o.deps.Store != nil {
		if err := o.deps.Store.AppendAlarm(ctx, cam.ID, cam.Name, event.Message, now); err != nil {
			o.deps.Logger.Error().Err(err).Msg("Failed to store alarm log")
		}
	}
	if o.deps.Publisher != nil {
		if err := o.deps.Publisher.PublishAlarm(*event); err != nil {
			o.deps.Logger.Warn().Err(err).Msg("Failed to publish alarm event")
		}
	}

	action, err := models.ParseAlarmAction(cam.AlarmAction)
	if err != nil || action == nil {
		o.deps.Logger.Error().Err(err).Str("action", cam.AlarmAction).Msg("Alarm action is not valid JSON")
		return event
	}
	if o.deps.Actions == nil {
		return event
	}

	payload := WebhookPayload{
		CameraID:  cam.ID,
		Event:     "alarm",
		Trigger:   trigger,
		Timestamp: now.Format(time.RFC3339),
	}
	logger := o.deps.Logger
	timeout := o.opts.ActionTimeout
	runner := o.deps.Actions

	started := o.actions.TryGo(func() error {
		defer recoverTask(logger, "alarm action")

		actx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := runner.Run(actx, *action, payload); err != nil {
			logger.Error().Err(err).Str("action", action.Action).Msg("Alarm action failed")
			return nil
		}
		logger.Info().Str("action", action.Action).Msg("Alarm action executed")
		return nil
	})
	if !started {
		logger.Warn().Str("action", action.Action).Msg("Too many alarm actions in flight, action dropped")
	}

	return event
}

func (o *Orchestrator) screenshot(ctx context.Context, cam *models.Camera, settings *models.GlobalSettings, frame Frame, now time.Time) string {
	folder := settings.ScreenshotFolder
	if folder == "" {
		folder = o.opts.ScreenshotFolder
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		o.deps.Logger.Error().Err(err).Str("folder", folder).Msg("Failed to create screenshot folder")
		return ""
	}

	filename := fmt.Sprintf("%s_alarm_%s.jpg", cam.SanitizedName(), now.Format(timestampLayout))
	path := filepath.Join(folder, filename)

	if err := frame.WriteJPEG(path); err != nil {
		o.deps.Logger.Error().Err(err).Str("path", path).Msg("Failed to save alarm screenshot")
		return ""
	}
	o.deps.Logger.Info().Str("path", path).Msg("Alarm screenshot saved")

	o.record(ctx, models.FileRecord{CameraID: cam.ID, Filename: filename, FileType: models.FileTypeScreenshot, CreatedAt: now})
	o.upload(path, "screenshots/"+filename)
	return filename
}

func (o *Orchestrator) startRecording(cam *models.Camera, in Input, now time.Time) string {
	if o.deps.NewWriter == nil {
		return ""
	}

	folder := in.Settings.VideoFolder
	if folder == "" {
		folder = o.opts.VideoFolder
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		o.deps.Logger.Error().Err(err).Str("folder", folder).Msg("Failed to create video folder")
		return ""
	}

	fps := in.FPS
	if fps <= 0 {
		fps = 20
	}
	filename := fmt.Sprintf("%s_alarm_%s.mp4", cam.SanitizedName(), now.Format(timestampLayout))
	path := filepath.Join(folder, filename)

	w, err := o.deps.NewWriter(path, fps, in.Width, in.Height)
	if err != nil {
		o.deps.Logger.Error().Err(err).Str("path", path).Msg("Failed to open video writer")
		return ""
	}

	o.mu.Lock()
	o.recording = &session{writer: w, path: path, filename: filename}
	o.mu.Unlock()

	o.deps.Logger.Info().Str("path", path).Float64("fps", fps).Msg("Alarm recording started")
	return filename
}

// stopRecording releases the writer and hands the file to an async transcode.
// When forced, the file record is written even if the transcode fails.
func (o *Orchestrator) stopRecording(rec *session, forced bool) {
	o.mu.Lock()
	if o.recording == rec {
		o.recording = nil
	}
	o.mu.Unlock()

	if err := rec.writer.Close(); err != nil {
		o.deps.Logger.Error().Err(err).Str("path", rec.path).Msg("Failed to close video writer")
	}
	o.deps.Logger.Info().Str("path", rec.path).Bool("forced", forced).Msg("Alarm recording stopped")

	logger := o.deps.Logger
	o.artifacts.Go(func() error {
		defer recoverTask(logger, "transcode")

		ctx := context.Background()
		if err := o.deps.Transcoder.Transcode(ctx, rec.path); err != nil {
			logger.Error().Err(err).Str("path", rec.path).Msg("Failed to transcode recording")
			if !forced {
				return nil
			}
		}

		o.record(ctx, models.FileRecord{CameraID: o.cameraID, Filename: rec.filename, FileType: models.FileTypeVideo, CreatedAt: o.opts.Now()})
		if o.deps.Uploader != nil {
			if err := o.deps.Uploader.Upload(ctx, rec.path, "videos/"+rec.filename); err != nil {
				logger.Warn().Err(err).Str("path", rec.path).Msg("Failed to upload recording")
			}
		}
		return nil
	})
}

func (o *Orchestrator) record(ctx context.Context, rec models.FileRecord) {
	if o.deps.Store == nil {
		return
	}
	if err := o.deps.Store.AppendFile(ctx, rec); err != nil {
		o.deps.Logger.Error().Err(err).Str("filename", rec.Filename).Msg("Failed to store file record")
	}
}

func (o *Orchestrator) upload(path, object string) {
	if o.deps.Uploader == nil {
		return
	}
	logger := o.deps.Logger
	o.artifacts.Go(func() error {
		defer recoverTask(logger, "upload")
		if err := o.deps.Uploader.Upload(context.Background(), path, object); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to upload artifact")
		}
		return nil
	})
}

// Close force-closes an open session and waits for in-flight tasks up to grace.
func (o *Orchestrator) Close(grace time.Duration) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	rec := o.recording
	o.mu.Unlock()

	if rec != nil {
		o.stopRecording(rec, true)
	}

	done := make(chan struct{})
	go func() {
		o.actions.Wait()
		o.artifacts.Wait()
		close(done)
	}()

	if grace <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return fmt.Errorf("alarm tasks still running after %s", grace)
	}
}

func recoverTask(logger zerolog.Logger, name string) {
	if r := recover(); r != nil {
		logger.Error().Interface("panic", r).Str("task", name).Msg("Recovered from panic in alarm task")
	}
}
