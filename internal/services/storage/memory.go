package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"linewatch-worker-go/internal/models"
)

// MemoryStore is a process-local Store with the same semantics as SQLStore.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	cameras  map[int64]models.Camera
	aiModels []models.AIModel
	settings models.GlobalSettings
	counts   []models.CountLog
	alarms   []models.AlarmLog
	files    []models.FileRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cameras: make(map[int64]models.Camera)}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func cloneCamera(c models.Camera) *models.Camera {
	c.AlarmTriggers = append([]string(nil), c.AlarmTriggers...)
	return &c
}

func (m *MemoryStore) GetCamera(_ context.Context, id int64) (*models.Camera, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cameras[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCamera(c), nil
}

func (m *MemoryStore) ListCameras(_ context.Context) ([]models.Camera, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := lo.Map(lo.Values(m.cameras), func(c models.Camera, _ int) models.Camera { return *cloneCamera(c) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateCamera(_ context.Context, cam *models.Camera) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cam.ID = m.id()
	if cam.CreatedAt.IsZero() {
		cam.CreatedAt = time.Now().UTC()
	}
	m.cameras[cam.ID] = *cloneCamera(*cam)
	return nil
}

func (m *MemoryStore) update(id int64, fn func(c *models.Camera)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cameras[id]
	if !ok {
		return ErrNotFound
	}
	fn(&c)
	m.cameras[id] = c
	return nil
}

func (m *MemoryStore) UpdateCamera(_ context.Context, cam *models.Camera) error {
	return m.update(cam.ID, func(c *models.Camera) {
		c.Name = cam.Name
		c.Location = cam.Location
		c.SourceURI = cam.SourceURI
		c.FaceDetectionEnabled = cam.FaceDetectionEnabled
		c.AlarmTriggers = append([]string(nil), cam.AlarmTriggers...)
	})
}

func (m *MemoryStore) DeleteCamera(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cameras[id]; !ok {
		return ErrNotFound
	}
	delete(m.cameras, id)

	m.aiModels = lo.Reject(m.aiModels, func(a models.AIModel, _ int) bool { return a.CameraID == id })
	for i := range m.counts {
		if m.counts[i].CameraID != nil && *m.counts[i].CameraID == id {
			m.counts[i].CameraID = nil
		}
	}
	for i := range m.alarms {
		if m.alarms[i].CameraID != nil && *m.alarms[i].CameraID == id {
			m.alarms[i].CameraID = nil
		}
	}
	for i := range m.files {
		if m.files[i].CameraID == id {
			m.files[i].CameraID = 0
		}
	}
	return nil
}

func (m *MemoryStore) SetAIEnabled(_ context.Context, id int64, enabled bool) error {
	return m.update(id, func(c *models.Camera) { c.AIEnabled = enabled })
}

func (m *MemoryStore) SetCountingLine(_ context.Context, id int64, line string) error {
	return m.update(id, func(c *models.Camera) { c.CountingLine = line })
}

func (m *MemoryStore) SetAlarm(_ context.Context, id int64, triggers []string, action string) error {
	return m.update(id, func(c *models.Camera) {
		c.AlarmTriggers = append([]string(nil), triggers...)
		c.AlarmAction = action
	})
}

func (m *MemoryStore) LatestModel(_ context.Context, cameraID int64) (*models.AIModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest, _, ok := lo.FindLastIndexOf(m.aiModels, func(a models.AIModel) bool { return a.CameraID == cameraID })
	if !ok {
		return nil, nil
	}
	return &latest, nil
}

func (m *MemoryStore) ListModels(_ context.Context, cameraID int64) ([]models.AIModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Filter(m.aiModels, func(a models.AIModel, _ int) bool { return a.CameraID == cameraID }), nil
}

func (m *MemoryStore) SaveModel(_ context.Context, model *models.AIModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cameras[model.CameraID]; !ok {
		return ErrNotFound
	}
	model.ID = m.id()
	m.aiModels = append(m.aiModels, *model)
	return nil
}

func (m *MemoryStore) DeleteModel(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.aiModels)
	m.aiModels = lo.Reject(m.aiModels, func(a models.AIModel, _ int) bool { return a.ID == id })
	if len(m.aiModels) == before {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryStore) GetSettings(_ context.Context) (*models.GlobalSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.settings
	return &s, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, s *models.GlobalSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = *s
	return nil
}

// cameraRef mirrors the sub-select used by SQLStore: nil when the camera is gone.
func (m *MemoryStore) cameraRef(id int64) *int64 {
	if _, ok := m.cameras[id]; !ok {
		return nil
	}
	return &id
}

func (m *MemoryStore) AppendCount(_ context.Context, cameraID int64, cameraName string, dir models.Direction, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts = append(m.counts, models.CountLog{
		ID: m.id(), CameraID: m.cameraRef(cameraID), CameraName: cameraName, Direction: dir, Timestamp: at.UTC(),
	})
	return nil
}

func (m *MemoryStore) AppendAlarm(_ context.Context, cameraID int64, cameraName, message string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alarms = append(m.alarms, models.AlarmLog{
		ID: m.id(), CameraID: m.cameraRef(cameraID), CameraName: cameraName, Message: message, Timestamp: at.UTC(),
	})
	return nil
}

func (m *MemoryStore) AppendFile(_ context.Context, rec models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ID = m.id()
	if m.cameraRef(rec.CameraID) == nil {
		rec.CameraID = 0
	}
	m.files = append(m.files, rec)
	return nil
}

func (m *MemoryStore) DailyCounts(ctx context.Context, cameraID int64, day time.Time) (models.Counts, error) {
	byCam, _ := m.CountsForDay(ctx, day, cameraID)
	return byCam[cameraID], nil
}

func (m *MemoryStore) CountsForDay(_ context.Context, day time.Time, cameraID int64) (map[int64]models.Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start, end := dayBounds(day)
	out := make(map[int64]models.Counts)
	for _, l := range m.counts {
		if l.CameraID == nil || l.Timestamp.Before(start) || !l.Timestamp.Before(end) {
			continue
		}
		if cameraID != 0 && *l.CameraID != cameraID {
			continue
		}
		c := out[*l.CameraID]
		c.Add(l.Direction)
		out[*l.CameraID] = c
	}
	return out, nil
}

func (m *MemoryStore) RecentCounts(_ context.Context, n int) ([]models.CountLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := append([]models.CountLog(nil), m.counts...)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.Before(logs[j].Timestamp) })
	return lastN(logs, n), nil
}

func (m *MemoryStore) RecentAlarms(_ context.Context, n int) ([]models.AlarmLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := append([]models.AlarmLog(nil), m.alarms...)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.Before(logs[j].Timestamp) })
	return lastN(logs, n), nil
}

func (m *MemoryStore) ListFiles(_ context.Context, fileType string) ([]models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := lo.Filter(m.files, func(f models.FileRecord, _ int) bool { return fileType == "" || f.FileType == fileType })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ClearCounts(_ context.Context) error {
	m.mu.Lock()
	m.counts = nil
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ClearAlarms(_ context.Context) error {
	m.mu.Lock()
	m.alarms = nil
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// lastN returns the final n elements of an oldest-first slice.
func lastN[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
