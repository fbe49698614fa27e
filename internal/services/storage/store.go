package storage

import (
	"context"
	"errors"
	"time"

	"linewatch-worker-go/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence boundary of the worker.
type Store interface {
	GetCamera(ctx context.Context, id int64) (*models.Camera, error)
	ListCameras(ctx context.Context) ([]models.Camera, error)
	CreateCamera(ctx context.Context, cam *models.Camera) error
	UpdateCamera(ctx context.Context, cam *models.Camera) error
	DeleteCamera(ctx context.Context, id int64) error
	SetAIEnabled(ctx context.Context, id int64, enabled bool) error
	SetCountingLine(ctx context.Context, id int64, line string) error
	SetAlarm(ctx context.Context, id int64, triggers []string, action string) error

	LatestModel(ctx context.Context, cameraID int64) (*models.AIModel, error)
	ListModels(ctx context.Context, cameraID int64) ([]models.AIModel, error)
	SaveModel(ctx context.Context, m *models.AIModel) error
	DeleteModel(ctx context.Context, id int64) error

	GetSettings(ctx context.Context) (*models.GlobalSettings, error)
	SaveSettings(ctx context.Context, s *models.GlobalSettings) error

	AppendCount(ctx context.Context, cameraID int64, cameraName string, dir models.Direction, at time.Time) error
	AppendAlarm(ctx context.Context, cameraID int64, cameraName, message string, at time.Time) error
	AppendFile(ctx context.Context, rec models.FileRecord) error

	DailyCounts(ctx context.Context, cameraID int64, day time.Time) (models.Counts, error)
	CountsForDay(ctx context.Context, day time.Time, cameraID int64) (map[int64]models.Counts, error)
	RecentCounts(ctx context.Context, n int) ([]models.CountLog, error)
	RecentAlarms(ctx context.Context, n int) ([]models.AlarmLog, error)
	ListFiles(ctx context.Context, fileType string) ([]models.FileRecord, error)
	ClearCounts(ctx context.Context) error
	ClearAlarms(ctx context.Context) error

	Close() error
}

// dayBounds returns [start, end) of the calendar day containing t in t's location, as UTC.
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
