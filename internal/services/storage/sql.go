package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"linewatch-worker-go/internal/models"
)

// SQLStore implements Store over database/sql for sqlite3 and postgres.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, postgres: driver == "pgx" || driver == "postgres"}
}

// DB exposes the handle for health checks.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const cameraColumns = `id, name, location, source_uri, ai_enabled, face_detection_enabled,
	counting_line, alarm_triggers, alarm_action, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCamera(row rowScanner) (*models.Camera, error) {
	var c models.Camera
	var triggers pq.StringArray
	if err := row.Scan(&c.ID, &c.Name, &c.Location, &c.SourceURI, &c.AIEnabled, &c.FaceDetectionEnabled,
		&c.CountingLine, &triggers, &c.AlarmAction, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.AlarmTriggers = []string(triggers)
	return &c, nil
}

func (s *SQLStore) GetCamera(ctx context.Context, id int64) (*models.Camera, error) {
	c, err := scanCamera(s.queryRow(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get camera %d: %w", id, err)
	}
	return c, nil
}

func (s *SQLStore) ListCameras(ctx context.Context) ([]models.Camera, error) {
	rows, err := s.query(ctx, `SELECT `+cameraColumns+` FROM cameras ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var out []models.Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateCamera(ctx context.Context, cam *models.Camera) error {
	if cam.CreatedAt.IsZero() {
		cam.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO cameras (name, location, source_uri, ai_enabled, face_detection_enabled,
		counting_line, alarm_triggers, alarm_action, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := s.queryRow(ctx, q, cam.Name, cam.Location, cam.SourceURI, cam.AIEnabled, cam.FaceDetectionEnabled,
		cam.CountingLine, triggerArray(cam.AlarmTriggers), cam.AlarmAction, cam.CreatedAt.UTC()).Scan(&cam.ID)
	if err != nil {
		return fmt.Errorf("create camera: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateCamera(ctx context.Context, cam *models.Camera) error {
	q := `UPDATE cameras SET name = ?, location = ?, source_uri = ?, face_detection_enabled = ?, alarm_triggers = ?
		WHERE id = ?`
	if err := mustAffect(s.exec(ctx, q, cam.Name, cam.Location, cam.SourceURI, cam.FaceDetectionEnabled,
		triggerArray(cam.AlarmTriggers), cam.ID)); err != nil {
		return fmt.Errorf("update camera %d: %w", cam.ID, err)
	}
	return nil
}

func (s *SQLStore) DeleteCamera(ctx context.Context, id int64) error {
	if err := mustAffect(s.exec(ctx, `DELETE FROM cameras WHERE id = ?`, id)); err != nil {
		return fmt.Errorf("delete camera %d: %w", id, err)
	}
	return nil
}

func (s *SQLStore) SetAIEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := mustAffect(s.exec(ctx, `UPDATE cameras SET ai_enabled = ? WHERE id = ?`, enabled, id)); err != nil {
		return fmt.Errorf("set ai enabled on camera %d: %w", id, err)
	}
	return nil
}

func (s *SQLStore) SetCountingLine(ctx context.Context, id int64, line string) error {
	if err := mustAffect(s.exec(ctx, `UPDATE cameras SET counting_line = ? WHERE id = ?`, line, id)); err != nil {
		return fmt.Errorf("set counting line on camera %d: %w", id, err)
	}
	return nil
}

func (s *SQLStore) SetAlarm(ctx context.Context, id int64, triggers []string, action string) error {
	q := `UPDATE cameras SET alarm_triggers = ?, alarm_action = ? WHERE id = ?`
	if err := mustAffect(s.exec(ctx, q, triggerArray(triggers), action, id)); err != nil {
		return fmt.Errorf("set alarm on camera %d: %w", id, err)
	}
	return nil
}

const modelColumns = `id, camera_id, filename, file_path, model_type, conf_threshold, iou_threshold`

func scanModel(row rowScanner) (*models.AIModel, error) {
	var m models.AIModel
	var conf, iou sql.NullFloat64
	if err := row.Scan(&m.ID, &m.CameraID, &m.Filename, &m.FilePath, &m.ModelType, &conf, &iou); err != nil {
		return nil, err
	}
	if conf.Valid {
		m.ConfThreshold = &conf.Float64
	}
	if iou.Valid {
		m.IoUThreshold = &iou.Float64
	}
	return &m, nil
}

func (s *SQLStore) LatestModel(ctx context.Context, cameraID int64) (*models.AIModel, error) {
	m, err := scanModel(s.queryRow(ctx,
		`SELECT `+modelColumns+` FROM ai_models WHERE camera_id = ? ORDER BY id DESC LIMIT 1`, cameraID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest model for camera %d: %w", cameraID, err)
	}
	return m, nil
}

func (s *SQLStore) ListModels(ctx context.Context, cameraID int64) ([]models.AIModel, error) {
	rows, err := s.query(ctx, `SELECT `+modelColumns+` FROM ai_models WHERE camera_id = ? ORDER BY id`, cameraID)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var out []models.AIModel
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveModel(ctx context.Context, m *models.AIModel) error {
	q := `INSERT INTO ai_models (camera_id, filename, file_path, model_type, conf_threshold, iou_threshold)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	if err := s.queryRow(ctx, q, m.CameraID, m.Filename, m.FilePath, m.ModelType,
		nullFloat(m.ConfThreshold), nullFloat(m.IoUThreshold)).Scan(&m.ID); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteModel(ctx context.Context, id int64) error {
	if err := mustAffect(s.exec(ctx, `DELETE FROM ai_models WHERE id = ?`, id)); err != nil {
		return fmt.Errorf("delete model %d: %w", id, err)
	}
	return nil
}

func (s *SQLStore) GetSettings(ctx context.Context) (*models.GlobalSettings, error) {
	var g models.GlobalSettings
	var conf, iou sql.NullFloat64
	err := s.queryRow(ctx, `SELECT video_folder, screenshot_folder, save_videos, save_screenshots,
		conf_threshold, iou_threshold FROM global_settings WHERE id = 1`).
		Scan(&g.VideoFolder, &g.ScreenshotFolder, &g.SaveVideos, &g.SaveScreenshots, &conf, &iou)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.GlobalSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if conf.Valid {
		g.ConfThreshold = &conf.Float64
	}
	if iou.Valid {
		g.IoUThreshold = &iou.Float64
	}
	return &g, nil
}

func (s *SQLStore) SaveSettings(ctx context.Context, g *models.GlobalSettings) error {
	q := `INSERT INTO global_settings (id, video_folder, screenshot_folder, save_videos, save_screenshots,
		conf_threshold, iou_threshold) VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET video_folder = excluded.video_folder,
		screenshot_folder = excluded.screenshot_folder, save_videos = excluded.save_videos,
		save_screenshots = excluded.save_screenshots, conf_threshold = excluded.conf_threshold,
		iou_threshold = excluded.iou_threshold`
	if _, err := s.exec(ctx, q, g.VideoFolder, g.ScreenshotFolder, g.SaveVideos, g.SaveScreenshots,
		nullFloat(g.ConfThreshold), nullFloat(g.IoUThreshold)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Appends resolve camera_id through a sub-select so a deleted camera stores NULL with the name snapshot.

func (s *SQLStore) AppendCount(ctx context.Context, cameraID int64, cameraName string, dir models.Direction, at time.Time) error {
	q := `INSERT INTO count_logs (camera_id, camera_name, direction, timestamp)
		VALUES ((SELECT id FROM cameras WHERE id = ?), ?, ?, ?)`
	if _, err := s.exec(ctx, q, cameraID, cameraName, string(dir), at.UTC()); err != nil {
		return fmt.Errorf("append count: %w", err)
	}
	return nil
}

func (s *SQLStore) AppendAlarm(ctx context.Context, cameraID int64, cameraName, message string, at time.Time) error {
	q := `INSERT INTO alarm_logs (camera_id, camera_name, message, timestamp)
		VALUES ((SELECT id FROM cameras WHERE id = ?), ?, ?, ?)`
	if _, err := s.exec(ctx, q, cameraID, cameraName, message, at.UTC()); err != nil {
		return fmt.Errorf("append alarm: %w", err)
	}
	return nil
}

func (s *SQLStore) AppendFile(ctx context.Context, rec models.FileRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	q := `INSERT INTO file_records (camera_id, filename, file_type, created_at)
		VALUES ((SELECT id FROM cameras WHERE id = ?), ?, ?, ?)`
	if _, err := s.exec(ctx, q, rec.CameraID, rec.Filename, rec.FileType, rec.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("append file record: %w", err)
	}
	return nil
}

func (s *SQLStore) DailyCounts(ctx context.Context, cameraID int64, day time.Time) (models.Counts, error) {
	byCam, err := s.CountsForDay(ctx, day, cameraID)
	if err != nil {
		return models.Counts{}, err
	}
	return byCam[cameraID], nil
}

// CountsForDay tallies in/out per camera for the day containing day. cameraID 0 means all cameras.
func (s *SQLStore) CountsForDay(ctx context.Context, day time.Time, cameraID int64) (map[int64]models.Counts, error) {
	start, end := dayBounds(day)
	q := `SELECT camera_id, direction, COUNT(*) FROM count_logs
		WHERE camera_id IS NOT NULL AND timestamp >= ? AND timestamp < ?`
	args := []any{start, end}
	if cameraID != 0 {
		q += ` AND camera_id = ?`
		args = append(args, cameraID)
	}
	q += ` GROUP BY camera_id, direction`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("count for day: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]models.Counts)
	for rows.Next() {
		var cam int64
		var dir string
		var n int
		if err := rows.Scan(&cam, &dir, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		c := out[cam]
		if models.Direction(dir) == models.DirectionIn {
			c.In += n
		} else {
			c.Out += n
		}
		out[cam] = c
	}
	return out, rows.Err()
}

// RecentCounts returns the newest n count rows, oldest first.
func (s *SQLStore) RecentCounts(ctx context.Context, n int) ([]models.CountLog, error) {
	rows, err := s.query(ctx, `SELECT id, camera_id, camera_name, direction, timestamp FROM count_logs
		ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent counts: %w", err)
	}
	defer rows.Close()

	var out []models.CountLog
	for rows.Next() {
		var l models.CountLog
		var cam sql.NullInt64
		var dir string
		if err := rows.Scan(&l.ID, &cam, &l.CameraName, &dir, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan count log: %w", err)
		}
		l.CameraID = nullID(cam)
		l.Direction = models.Direction(dir)
		out = append(out, l)
	}
	reverse(out)
	return out, rows.Err()
}

// RecentAlarms returns the newest n alarm rows, oldest first.
func (s *SQLStore) RecentAlarms(ctx context.Context, n int) ([]models.AlarmLog, error) {
	rows, err := s.query(ctx, `SELECT id, camera_id, camera_name, message, timestamp FROM alarm_logs
		ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent alarms: %w", err)
	}
	defer rows.Close()

	var out []models.AlarmLog
	for rows.Next() {
		var l models.AlarmLog
		var cam sql.NullInt64
		if err := rows.Scan(&l.ID, &cam, &l.CameraName, &l.Message, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan alarm log: %w", err)
		}
		l.CameraID = nullID(cam)
		out = append(out, l)
	}
	reverse(out)
	return out, rows.Err()
}

// ListFiles lists records newest first, optionally filtered by type.
func (s *SQLStore) ListFiles(ctx context.Context, fileType string) ([]models.FileRecord, error) {
	q := `SELECT id, camera_id, filename, file_type, created_at FROM file_records`
	var args []any
	if fileType != "" {
		q += ` WHERE file_type = ?`
		args = append(args, fileType)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []models.FileRecord
	for rows.Next() {
		var r models.FileRecord
		var cam sql.NullInt64
		if err := rows.Scan(&r.ID, &cam, &r.Filename, &r.FileType, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		r.CameraID = cam.Int64
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ClearCounts(ctx context.Context) error {
	if _, err := s.exec(ctx, `DELETE FROM count_logs`); err != nil {
		return fmt.Errorf("clear counts: %w", err)
	}
	return nil
}

func (s *SQLStore) ClearAlarms(ctx context.Context) error {
	if _, err := s.exec(ctx, `DELETE FROM alarm_logs`); err != nil {
		return fmt.Errorf("clear alarms: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// triggerArray never returns nil so the column stays NOT NULL.
func triggerArray(t []string) pq.StringArray {
	if t == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(t)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
