package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/storage"
)

// Broadcaster pushes one event to every connected viewer.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Sender periodically recomputes today's counts and the latest logs.
type Sender struct {
	store    storage.Store
	out      Broadcaster
	interval time.Duration
	entries  int
	now      func() time.Time
	logger   zerolog.Logger
}

func New(store storage.Store, out Broadcaster, interval time.Duration, entries int, logger zerolog.Logger) *Sender {
	if interval <= 0 {
		interval = time.Second
	}
	if entries <= 0 {
		entries = 7
	}
	return &Sender{store: store, out: out, interval: interval, entries: entries, now: time.Now, logger: logger}
}

// Build assembles the dashboard payload. Cameras without counts today report zeros.
func (s *Sender) Build(ctx context.Context) (models.DashboardData, error) {
	data := models.DashboardData{
		ChartData:    make(map[int64]models.Counts),
		CountingLogs: []string{},
		AlarmLogs:    []string{},
	}

	cams, err := s.store.ListCameras(ctx)
	if err != nil {
		return data, fmt.Errorf("list cameras: %w", err)
	}
	counts, err := s.store.CountsForDay(ctx, s.now(), 0)
	if err != nil {
		return data, fmt.Errorf("count today: %w", err)
	}
	for _, cam := range cams {
		data.ChartData[cam.ID] = counts[cam.ID]
	}

	countLogs, err := s.store.RecentCounts(ctx, s.entries)
	if err != nil {
		return data, fmt.Errorf("recent counts: %w", err)
	}
	for _, l := range countLogs {
		data.CountingLogs = append(data.CountingLogs, FormatCount(l))
	}

	alarmLogs, err := s.store.RecentAlarms(ctx, s.entries)
	if err != nil {
		return data, fmt.Errorf("recent alarms: %w", err)
	}
	for _, l := range alarmLogs {
		data.AlarmLogs = append(data.AlarmLogs, FormatAlarm(l))
	}
	return data, nil
}

// FormatCount renders a count log line in local time.
func FormatCount(l models.CountLog) string {
	return fmt.Sprintf("[%s] Camera %s: person '%s' detected.",
		l.Timestamp.Local().Format("15:04:05"), models.DisplayName(l.CameraID, l.CameraName), l.Direction)
}

// FormatAlarm renders an alarm log line in local time.
func FormatAlarm(l models.AlarmLog) string {
	return fmt.Sprintf("[%s] %s on camera %s.",
		l.Timestamp.Local().Format("15:04:05"), l.Message, models.DisplayName(l.CameraID, l.CameraName))
}

// Run broadcasts the dashboard every interval until ctx is done. Store errors skip one tick.
func (s *Sender) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Dashboard sender started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Dashboard sender stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sender) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Dashboard tick panic recovered")
		}
	}()

	tctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	data, err := s.Build(tctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to build dashboard data")
		return
	}
	s.out.Broadcast(models.EventDashboard, data)
}
