package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/models"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "linewatch.db") + "?_foreign_keys=on"
	sqlite, err := Open(ctx, config.StorageConfig{Driver: "sqlite3", DSN: dsn})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	mem, err := Open(ctx, config.StorageConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	t.Cleanup(func() {
		sqlite.Close()
		mem.Close()
	})
	return map[string]Store{"sqlite": sqlite, "memory": mem}
}

func createCamera(t *testing.T, s Store, name string) *models.Camera {
	t.Helper()
	cam := &models.Camera{Name: name, SourceURI: "rtsp://" + name}
	if err := s.CreateCamera(context.Background(), cam); err != nil {
		t.Fatalf("create camera: %v", err)
	}
	return cam
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StorageConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCameraLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			cam := createCamera(t, s, "Front Door")
			if cam.ID == 0 {
				t.Fatal("id not assigned")
			}

			if err := s.SetAIEnabled(ctx, cam.ID, true); err != nil {
				t.Fatalf("SetAIEnabled: %v", err)
			}
			if err := s.SetCountingLine(ctx, cam.ID, `{"x1":0.5,"y1":0,"x2":0.5,"y2":1}`); err != nil {
				t.Fatalf("SetCountingLine: %v", err)
			}
			if err := s.SetAlarm(ctx, cam.ID, []string{"person", "car"}, `{"action":"custom_script","command":"true"}`); err != nil {
				t.Fatalf("SetAlarm: %v", err)
			}

			got, err := s.GetCamera(ctx, cam.ID)
			if err != nil {
				t.Fatalf("GetCamera: %v", err)
			}
			if !got.AIEnabled || got.CountingLine == "" || len(got.AlarmTriggers) != 2 || got.AlarmTriggers[1] != "car" {
				t.Errorf("camera = %+v", got)
			}

			got.Name = "Back Door"
			got.AlarmTriggers = nil
			if err := s.UpdateCamera(ctx, got); err != nil {
				t.Fatalf("UpdateCamera: %v", err)
			}
			got, _ = s.GetCamera(ctx, cam.ID)
			if got.Name != "Back Door" || len(got.AlarmTriggers) != 0 {
				t.Errorf("after update = %+v", got)
			}

			if err := s.DeleteCamera(ctx, cam.ID); err != nil {
				t.Fatalf("DeleteCamera: %v", err)
			}
			if _, err := s.GetCamera(ctx, cam.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetCamera after delete err = %v", err)
			}
			if err := s.SetAIEnabled(ctx, cam.ID, false); !errors.Is(err, ErrNotFound) {
				t.Errorf("SetAIEnabled on missing err = %v", err)
			}
		})
	}
}

func TestModelsAndSettings(t *testing.T) {
	ctx := context.Background()
	conf := 0.4
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			cam := createCamera(t, s, "lobby")

			if m, err := s.LatestModel(ctx, cam.ID); err != nil || m != nil {
				t.Fatalf("LatestModel empty = %v, %v", m, err)
			}
			first := &models.AIModel{CameraID: cam.ID, Filename: "a.pt", FilePath: "/m/a.pt", ModelType: models.ModelYOLOv8}
			second := &models.AIModel{CameraID: cam.ID, Filename: "b.pb", FilePath: "/m/b.pb", ModelType: models.ModelSSDMobileNet, ConfThreshold: &conf}
			for _, m := range []*models.AIModel{first, second} {
				if err := s.SaveModel(ctx, m); err != nil {
					t.Fatalf("SaveModel: %v", err)
				}
			}

			latest, err := s.LatestModel(ctx, cam.ID)
			if err != nil || latest == nil {
				t.Fatalf("LatestModel = %v, %v", latest, err)
			}
			if latest.ID != second.ID || latest.ConfThreshold == nil || *latest.ConfThreshold != conf || latest.IoUThreshold != nil {
				t.Errorf("latest = %+v", latest)
			}

			if err := s.DeleteModel(ctx, second.ID); err != nil {
				t.Fatalf("DeleteModel: %v", err)
			}
			list, _ := s.ListModels(ctx, cam.ID)
			if len(list) != 1 || list[0].ID != first.ID {
				t.Errorf("models = %+v", list)
			}

			settings, err := s.GetSettings(ctx)
			if err != nil || settings.SaveVideos || settings.ConfThreshold != nil {
				t.Fatalf("default settings = %+v, %v", settings, err)
			}
			want := &models.GlobalSettings{VideoFolder: "/v", ScreenshotFolder: "/s", SaveVideos: true, ConfThreshold: &conf}
			for i := 0; i < 2; i++ {
				if err := s.SaveSettings(ctx, want); err != nil {
					t.Fatalf("SaveSettings: %v", err)
				}
			}
			settings, _ = s.GetSettings(ctx)
			if settings.VideoFolder != "/v" || !settings.SaveVideos || settings.SaveScreenshots || *settings.ConfThreshold != conf {
				t.Errorf("settings = %+v", settings)
			}
		})
	}
}

func TestDailyCountsAndDeletedCamera(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			a := createCamera(t, s, "a")
			b := createCamera(t, s, "b")

			appends := []struct {
				cam *models.Camera
				dir models.Direction
				at  time.Time
			}{
				{a, models.DirectionIn, day},
				{a, models.DirectionIn, day.Add(time.Hour)},
				{a, models.DirectionOut, day.Add(2 * time.Hour)},
				{a, models.DirectionOut, day.Add(-13 * time.Hour)},
				{b, models.DirectionOut, day},
			}
			for _, ap := range appends {
				if err := s.AppendCount(ctx, ap.cam.ID, ap.cam.Name, ap.dir, ap.at); err != nil {
					t.Fatalf("AppendCount: %v", err)
				}
			}

			got, err := s.DailyCounts(ctx, a.ID, day)
			if err != nil {
				t.Fatalf("DailyCounts: %v", err)
			}
			if got != (models.Counts{In: 2, Out: 1}) {
				t.Errorf("camera a counts = %+v", got)
			}

			all, _ := s.CountsForDay(ctx, day, 0)
			if len(all) != 2 || all[b.ID] != (models.Counts{Out: 1}) {
				t.Errorf("all counts = %+v", all)
			}

			if err := s.DeleteCamera(ctx, b.ID); err != nil {
				t.Fatalf("DeleteCamera: %v", err)
			}
			if err := s.AppendCount(ctx, b.ID, "b", models.DirectionIn, day.Add(3*time.Hour)); err != nil {
				t.Fatalf("append after delete: %v", err)
			}
			if err := s.AppendAlarm(ctx, b.ID, "b", "'person' detected", day); err != nil {
				t.Fatalf("alarm after delete: %v", err)
			}

			recent, _ := s.RecentCounts(ctx, 2)
			if len(recent) != 2 {
				t.Fatalf("recent = %+v", recent)
			}
			if !recent[0].Timestamp.Before(recent[1].Timestamp) {
				t.Errorf("recent not oldest first: %v, %v", recent[0].Timestamp, recent[1].Timestamp)
			}
			last := recent[1]
			if last.CameraID != nil || models.DisplayName(last.CameraID, last.CameraName) != "b (deleted)" {
				t.Errorf("deleted camera log = %+v", last)
			}

			alarms, _ := s.RecentAlarms(ctx, 10)
			if len(alarms) != 1 || alarms[0].CameraID != nil || alarms[0].Message != "'person' detected" {
				t.Errorf("alarms = %+v", alarms)
			}

			if err := s.ClearCounts(ctx); err != nil {
				t.Fatalf("ClearCounts: %v", err)
			}
			if err := s.ClearAlarms(ctx); err != nil {
				t.Fatalf("ClearAlarms: %v", err)
			}
			if recent, _ := s.RecentCounts(ctx, 10); len(recent) != 0 {
				t.Errorf("counts after clear = %d", len(recent))
			}
		})
	}
}

func TestFileRecordsNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			cam := createCamera(t, s, "gate")
			recs := []models.FileRecord{
				{CameraID: cam.ID, Filename: "gate_alarm_1.jpg", FileType: models.FileTypeScreenshot, CreatedAt: base},
				{CameraID: cam.ID, Filename: "gate_alarm_1.mp4", FileType: models.FileTypeVideo, CreatedAt: base.Add(time.Second)},
				{CameraID: cam.ID, Filename: "gate_alarm_2.jpg", FileType: models.FileTypeScreenshot, CreatedAt: base.Add(time.Minute)},
			}
			for _, r := range recs {
				if err := s.AppendFile(ctx, r); err != nil {
					t.Fatalf("AppendFile: %v", err)
				}
			}

			shots, err := s.ListFiles(ctx, models.FileTypeScreenshot)
			if err != nil {
				t.Fatalf("ListFiles: %v", err)
			}
			if len(shots) != 2 || shots[0].Filename != "gate_alarm_2.jpg" || shots[0].CameraID != cam.ID {
				t.Errorf("screenshots = %+v", shots)
			}
			if all, _ := s.ListFiles(ctx, ""); len(all) != 3 {
				t.Errorf("all files = %d", len(all))
			}
		})
	}
}

func TestRebindPostgres(t *testing.T) {
	s := NewSQLStore(nil, "pgx")
	got := s.rebind(`UPDATE cameras SET name = ? WHERE id = ?`)
	if got != `UPDATE cameras SET name = $1 WHERE id = $2` {
		t.Errorf("rebind = %q", got)
	}
	if NewSQLStore(nil, "sqlite3").rebind("?") != "?" {
		t.Error("sqlite query rewritten")
	}
}

func TestDayBoundsUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	start, end := dayBounds(time.Date(2024, 5, 6, 1, 0, 0, 0, loc))
	if !start.Equal(time.Date(2024, 5, 5, 22, 0, 0, 0, time.UTC)) || end.Sub(start) != 24*time.Hour {
		t.Errorf("bounds = %v .. %v", start, end)
	}
}

func TestLatestModelIgnoresOtherCameras(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := createCamera(t, s, "a")
			b := createCamera(t, s, "b")

			saved := []*models.AIModel{
				{CameraID: a.ID, Filename: "a1.onnx", FilePath: "/m/a1.onnx", ModelType: models.ModelYOLOv8},
				{CameraID: b.ID, Filename: "b1.onnx", FilePath: "/m/b1.onnx", ModelType: models.ModelYOLOv8},
				{CameraID: a.ID, Filename: "a2.onnx", FilePath: "/m/a2.onnx", ModelType: models.ModelYOLOv8},
				{CameraID: b.ID, Filename: "b2.onnx", FilePath: "/m/b2.onnx", ModelType: models.ModelYOLOv8},
			}
			for _, m := range saved {
				if err := s.SaveModel(ctx, m); err != nil {
					t.Fatalf("SaveModel: %v", err)
				}
			}

			tests := []struct {
				camera int64
				want   string
			}{
				{a.ID, "a2.onnx"},
				{b.ID, "b2.onnx"},
			}
			for _, tt := range tests {
				latest, err := s.LatestModel(ctx, tt.camera)
				if err != nil || latest == nil || latest.Filename != tt.want {
					t.Errorf("LatestModel(%d) = %+v, %v, want %s", tt.camera, latest, err, tt.want)
				}
			}
		})
	}
}
