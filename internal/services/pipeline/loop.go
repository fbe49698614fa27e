package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/alarm"
	"linewatch-worker-go/internal/services/analysis"
	"linewatch-worker-go/internal/services/mjpeg"
	"linewatch-worker-go/internal/services/storage"
)

// State is the lifecycle state of a camera loop.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateReconnecting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Events delivers named live-view events.
type Events interface {
	Broadcast(event string, data any)
	SendTo(viewerIDs []string, event string, data any)
}

// Deps are shared by every camera loop of the worker.
// Transcoder defaults to ffmpeg at the configured path.
type Deps struct {
	Config     *config.Config
	Store      storage.Store
	Bus        models.EventPublisher
	Events     Events
	Viewers    func(cameraID int64) []string
	MJPEG      *mjpeg.Publisher
	Vision     Vision
	Transcoder alarm.Transcoder
	Actions    alarm.ActionRunner
	Uploader   alarm.Uploader
	Logger     zerolog.Logger
}

// Loop is one camera's capture, analysis and fan-out cycle.
type Loop struct {
	cameraID int64
	deps     Deps
	cfg      *config.Config
	logger   zerolog.Logger

	state atomic.Int32

	// Owned by the loop goroutine between start and stop
	camera    *models.Camera
	settings  *models.GlobalSettings
	source    Source
	det       Detector
	analyzer  *analysis.Analyzer
	orch      *alarm.Orchestrator
	detFailed bool

	countsMu sync.Mutex
	counts   models.Counts
}

func New(cameraID int64, deps Deps) *Loop {
	l := &Loop{
		cameraID: cameraID,
		deps:     deps,
		cfg:      deps.Config,
		logger:   logging.WithCamera(deps.Logger, cameraID),
	}
	l.setState(StateStarting)
	return l
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

// State reports the current lifecycle state.
func (l *Loop) State() string {
	return State(l.state.Load()).String()
}

// Counts returns today's running totals.
func (l *Loop) Counts() models.Counts {
	l.countsMu.Lock()
	defer l.countsMu.Unlock()
	return l.counts
}

// Run blocks until ctx is cancelled, the camera is disabled or deleted, or the stream is lost for good.
func (l *Loop) Run(ctx context.Context) {
	defer l.setState(StateStopped)
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Camera loop panic recovered")
			l.status(models.SeverityError, "AI live view crashed")
		}
	}()

	if err := l.start(ctx); err != nil {
		l.logger.Error().Err(err).Msg("Camera loop failed to start")
		return
	}
	defer l.stop()

	interval := l.cfg.FrameInterval
	for {
		if ctx.Err() != nil {
			l.logger.Info().Msg("Camera loop stop requested")
			return
		}

		frame, ok := l.source.Read()
		if !ok {
			if !l.reconnect(ctx) {
				return
			}
			continue
		}

		if !l.cycle(ctx, frame) {
			return
		}

		select {
		case <-ctx.Done():
		case <-time.After(interval):
		}
	}
}

// start resolves config, detector and capture. Every failure here is reported as a status event.
func (l *Loop) start(ctx context.Context) error {
	l.setState(StateStarting)

	cam, err := l.deps.Store.GetCamera(ctx, l.cameraID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			l.status(models.SeverityError, "Camera not found")
		} else {
			l.status(models.SeverityError, "Failed to load camera configuration")
		}
		return fmt.Errorf("load camera: %w", err)
	}
	l.camera = cam
	l.logger = l.logger.With().Str("camera_name", cam.Name).Logger()

	model, err := l.deps.Store.LatestModel(ctx, cam.ID)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to load camera model, using default detector")
		model = nil
	}

	defaults := models.Thresholds{Confidence: l.cfg.DefaultConfThreshold, IoU: l.cfg.DefaultIoUThreshold}
	settings, err := l.deps.Store.GetSettings(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to load global settings, using fallback thresholds")
		defaults = models.Thresholds{Confidence: l.cfg.FallbackConf, IoU: l.cfg.FallbackIoU}
		settings = nil
	}
	l.settings = settings
	thresholds := models.ResolveThresholds(model, settings, defaults)

	det, err := l.deps.Vision.OpenDetector(ctx, DetectorRequest{
		Camera:     cam,
		Model:      model,
		Thresholds: thresholds,
		Logger:     l.logger,
	})
	if err != nil {
		l.status(models.SeverityError, fmt.Sprintf("Failed to load AI model: %v", err))
		return fmt.Errorf("load detector: %w", err)
	}
	l.det = det

	source, err := l.deps.Vision.OpenSource(cam.SourceURI, l.logger)
	if err != nil {
		det.Close()
		l.status(models.SeverityError, "Could not open video stream")
		return err
	}
	l.source = source

	transcoder := l.deps.Transcoder
	if transcoder == nil {
		transcoder = alarm.FFmpeg{Binary: l.cfg.FFmpegPath}
	}

	l.analyzer = analysis.New(l.cfg.TrackingRadius, l.cfg.RearmDistance, l.cfg.CountedClass, l.logger)
	l.orch = alarm.New(cam.ID, alarm.Deps{
		Store:      l.deps.Store,
		Actions:    l.deps.Actions,
		Transcoder: transcoder,
		NewWriter:  l.deps.Vision.NewWriter,
		Publisher:  l.deps.Bus,
		Uploader:   l.deps.Uploader,
		Logger:     l.logger,
	}, alarm.Options{
		AlarmCooldown:      l.cfg.AlarmCooldown,
		ScreenshotCooldown: l.cfg.ScreenshotCooldown,
		ActionTimeout:      l.cfg.ActionTimeout,
		ActionWorkers:      l.cfg.ActionWorkers,
		VideoFolder:        l.cfg.DefaultVideoFolder,
		ScreenshotFolder:   l.cfg.DefaultScreenshotFolder,
	})

	l.logger.Info().
		Str("detector", det.Name()).
		Bool("native_tracking", det.NativeTracking()).
		Float64("conf", thresholds.Confidence).
		Float64("iou", thresholds.IoU).
		Msg("Camera loop started")

	l.setState(StateRunning)
	l.status(models.SeverityInfo, "AI live view started")

	today, err := l.deps.Store.DailyCounts(ctx, cam.ID, time.Now())
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to load today's counts, starting from zero")
	}
	l.countsMu.Lock()
	l.counts = today
	l.countsMu.Unlock()
	l.emitCounts()

	return nil
}

// reconnect releases the source and reopens it under the configured policy.
func (l *Loop) reconnect(ctx context.Context) bool {
	l.setState(StateReconnecting)
	l.logger.Warn().Msg("Empty frame read, reconnecting to stream")
	l.source.Close()
	l.source = nil

	policy := l.cfg.Reconnect
	attempts := max(1, policy.MaxAttempts)
	for attempt := 0; attempt < attempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(policy.Delay(attempt)):
		}

		source, err := l.deps.Vision.OpenSource(l.camera.SourceURI, l.logger)
		if err != nil {
			l.logger.Warn().Err(err).Int("attempt", attempt+1).Int("max_attempts", attempts).Msg("Reconnect attempt failed")
			continue
		}
		l.source = source
		l.setState(StateRunning)
		l.logger.Info().Int("attempt", attempt+1).Msg("Reconnected to stream")
		return true
	}

	l.status(models.SeverityError, "Could not reconnect to video stream")
	return false
}

// stop releases everything start acquired and flushes open artifacts.
func (l *Loop) stop() {
	if l.source != nil {
		l.source.Close()
	}
	if l.det != nil {
		if err := l.det.Close(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to close detector")
		}
	}
	if l.orch != nil {
		if err := l.orch.Close(l.cfg.StopGracePeriod); err != nil {
			l.logger.Warn().Err(err).Msg("Alarm tasks did not finish in time")
		}
	}
	if l.deps.MJPEG != nil {
		l.deps.MJPEG.Forget(l.cameraID)
	}

	l.status(models.SeverityInfo, "AI live view stopped")
	l.logger.Info().Msg("Camera loop stopped")
}

func (l *Loop) status(severity models.Severity, message string) {
	ev := models.StatusEvent{
		CameraID:  l.cameraID,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
	}
	if l.deps.Events != nil {
		l.deps.Events.Broadcast(models.EventStatus, ev)
	}
	if l.deps.Bus != nil {
		if err := l.deps.Bus.PublishStatus(ev); err != nil {
			l.logger.Debug().Err(err).Msg("Failed to publish status event")
		}
	}
}

func (l *Loop) emitCounts() {
	if l.deps.Events == nil {
		return
	}
	l.deps.Events.Broadcast(models.EventCountUpdate, models.CountUpdate{CameraID: l.cameraID, Counts: l.Counts()})
}
