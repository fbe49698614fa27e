package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/control"
	"linewatch-worker-go/internal/services/dashboard"
	"linewatch-worker-go/internal/services/mjpeg"
	"linewatch-worker-go/internal/services/storage"
	"linewatch-worker-go/internal/services/supervisor"
	"linewatch-worker-go/internal/transport/ws"
)

func newLiveServer(t *testing.T, adminToken string) (*httptest.Server, *storage.MemoryStore, *supervisor.Supervisor) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	cfg := &config.Config{WorkerID: "worker-test", Version: "test", ModelDir: t.TempDir(), AdminTokenHash: string(hash)}

	store := storage.NewMemoryStore()
	sup := supervisor.New(func(int64) supervisor.Runner { return idleRunner{} }, zerolog.Nop())
	hub := ws.NewHub(zerolog.Nop())
	ctl := control.New(store, sup, hub, zerolog.Nop())
	hub.SetHandler(ctl)

	srv := NewServer(cfg, Deps{
		Store:     store,
		Control:   ctl,
		Loops:     sup,
		Dashboard: dashboard.New(store, hub, time.Second, 7, zerolog.Nop()),
		MJPEG:     mjpeg.NewPublisher(nil),
		LiveView:  hub,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		sup.Shutdown(ctx)
	})
	return ts, store, sup
}

func dialLive(t *testing.T, ts *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func nextEvent(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"event": event, "data": data}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func TestLiveViewRequiresAdminForChanges(t *testing.T) {
	ts, store, sup := newLiveServer(t, "s3cret")
	ctx := context.Background()
	store.CreateCamera(ctx, &models.Camera{Name: "gate", SourceURI: "rtsp://gate"})
	line := map[string]float64{"x1": 0, "y1": 0.5, "x2": 1, "y2": 0.5}

	guest := dialLive(t, ts, "", nil)
	if msg := nextEvent(t, guest); msg.Event != models.EventInitialStatus {
		t.Fatalf("first event = %s", msg.Event)
	}

	sendEvent(t, guest, models.EventSetCountingLine, map[string]any{"camera": 1, "coords": line})
	sendEvent(t, guest, models.EventSetAIEnabled, map[string]any{"camera": 1, "enabled": true})
	for i := 0; i < 2; i++ {
		msg := nextEvent(t, guest)
		var payload models.ErrorPayload
		json.Unmarshal(msg.Data, &payload)
		if msg.Event != models.EventError || payload.Message != "admin token required" {
			t.Errorf("reply %d = %s %s", i, msg.Event, msg.Data)
		}
	}

	cam, _ := store.GetCamera(ctx, 1)
	if cam.AIEnabled || cam.CountingLine != "" {
		t.Errorf("camera changed by guest: %+v", cam)
	}
	if sup.Running(1) {
		t.Error("guest started the pipeline")
	}

	tests := []struct {
		name   string
		query  string
		header http.Header
		want   string
	}{
		{"wrong token", "?token=nope", nil, models.EventError},
		{"bearer header", "", http.Header{"Authorization": {"Bearer s3cret"}}, models.EventLineSaved},
		{"query token", "?token=s3cret", nil, models.EventLineSaved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialLive(t, ts, tt.query, tt.header)
			nextEvent(t, conn)
			sendEvent(t, conn, models.EventSetCountingLine, map[string]any{"camera": 1, "coords": line})
			if msg := nextEvent(t, conn); msg.Event != tt.want {
				t.Errorf("reply = %s %s, want %s", msg.Event, msg.Data, tt.want)
			}
		})
	}

	cam, _ = store.GetCamera(ctx, 1)
	if cam.CountingLine == "" {
		t.Error("admin line not stored")
	}
}
