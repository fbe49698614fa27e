package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/alarm"
	"linewatch-worker-go/internal/services/analysis"
	"linewatch-worker-go/internal/services/storage"
)

const countWriteTimeout = 5 * time.Second

// cycle processes one frame. It returns false when the loop must exit.
func (l *Loop) cycle(ctx context.Context, frame Frame) bool {
	if !l.reload(ctx) {
		return false
	}
	cam := l.camera

	dets, err := l.det.Detect(frame)
	if err != nil {
		if !l.detFailed {
			l.status(models.SeverityWarning, "AI detection failing, retrying")
		}
		l.detFailed = true
		l.logger.Warn().Err(err).Msg("Detection failed for frame")
		dets = nil
	} else if l.detFailed {
		l.detFailed = false
		l.status(models.SeverityInfo, "AI detection recovered")
	}

	width, height := frame.Size()
	res := l.analyzer.Analyze(cam, dets, l.det.NativeTracking(), width, height)

	l.recordCrossings(ctx, cam, res)

	frame.Annotate(res, l.Counts())

	fps := l.source.FPS()
	out := l.orch.Step(ctx, alarm.Input{
		Camera:   cam,
		Settings: l.settings,
		Trigger:  res.Trigger,
		Active:   res.AlarmActive,
		Frame:    frame,
		FPS:      fps,
		Width:    width,
		Height:   height,
	})
	if out.Alarm != nil {
		l.status(models.SeverityWarning, fmt.Sprintf("ALARM: %s", out.Alarm.Message))
	}

	l.fanOut(cam.ID, frame)
	return true
}

// reload re-reads camera and settings so configuration changes apply on the next frame.
func (l *Loop) reload(ctx context.Context) bool {
	cam, err := l.deps.Store.GetCamera(ctx, l.cameraID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.logger.Info().Msg("Camera deleted, stopping loop")
		return false
	case err != nil:
		l.logger.Warn().Err(err).Msg("Failed to reload camera, keeping previous configuration")
	default:
		l.camera = cam
	}

	if !l.camera.AIEnabled {
		l.logger.Info().Msg("AI disabled, stopping loop")
		return false
	}

	if settings, err := l.deps.Store.GetSettings(ctx); err != nil {
		l.logger.Debug().Err(err).Msg("Failed to reload settings, keeping previous")
	} else {
		l.settings = settings
	}
	return true
}

// recordCrossings applies crossings in detection order: cache, storage, bus, then one count_update.
// Counts already taken are stored even when the loop is being stopped.
func (l *Loop) recordCrossings(ctx context.Context, cam *models.Camera, res analysis.Result) {
	if len(res.Crossings) == 0 {
		return
	}
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), countWriteTimeout)
	defer cancel()

	for _, c := range res.Crossings {
		now := time.Now()

		l.countsMu.Lock()
		l.counts.Add(c.Direction)
		l.countsMu.Unlock()

		l.logger.Info().Int("track_id", c.TrackID).Str("direction", string(c.Direction)).Msg("Line crossing counted")

		if err := l.deps.Store.AppendCount(storeCtx, cam.ID, cam.Name, c.Direction, now); err != nil {
			l.logger.Error().Err(err).Msg("Failed to store count")
		}
		if l.deps.Bus != nil {
			ev := models.CountEvent{CameraID: cam.ID, CameraName: cam.Name, Direction: c.Direction, TrackID: c.TrackID, Timestamp: now}
			if err := l.deps.Bus.PublishCount(ev); err != nil {
				l.logger.Debug().Err(err).Msg("Failed to publish count event")
			}
		}
	}
	l.emitCounts()
}

// fanOut encodes the annotated frame only when someone is watching.
func (l *Loop) fanOut(cameraID int64, frame Frame) {
	var viewers []string
	if l.deps.Viewers != nil {
		viewers = l.deps.Viewers(cameraID)
	}
	streaming := l.deps.MJPEG != nil && l.deps.MJPEG.HasStreamers(cameraID)
	if len(viewers) == 0 && !streaming {
		return
	}

	jpeg, err := frame.EncodeJPEG(l.cfg.JPEGQuality)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to encode frame for viewers")
		return
	}

	if len(viewers) > 0 && l.deps.Events != nil {
		l.deps.Events.SendTo(viewers, models.EventFrame, models.FramePayload{
			CameraID:   cameraID,
			JPEGBase64: base64.StdEncoding.EncodeToString(jpeg),
		})
	}
	if streaming {
		l.deps.MJPEG.Publish(cameraID, jpeg)
	}
}
