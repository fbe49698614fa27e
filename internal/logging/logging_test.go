package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestRequestEventFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		camera    string
		admin     bool
		wantAdmin bool
	}{
		{"camera route as admin", "7", true, true},
		{"collection route", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureGlobal(t)
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Set(string(CtxRequestID), "req-1")
			c.Set(string(CtxStartTime), time.Now().Add(-time.Second))
			if tt.admin {
				c.Set(string(CtxAdmin), true)
			}
			if tt.camera != "" {
				c.Params = gin.Params{{Key: "id", Value: tt.camera}}
			}

			Info(c).Msg("Camera updated")

			var got map[string]any
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("decode %q: %v", buf, err)
			}
			if got["request_id"] != "req-1" || got["duration"] == nil {
				t.Errorf("event = %v", got)
			}
			if camera, _ := got["camera_id"].(string); camera != tt.camera {
				t.Errorf("camera_id = %v, want %q", got["camera_id"], tt.camera)
			}
			if _, ok := got["admin"]; ok != tt.wantAdmin {
				t.Errorf("admin field present = %v, want %v", ok, tt.wantAdmin)
			}
		})
	}
}

func TestRequestEventWithoutContext(t *testing.T) {
	buf := captureGlobal(t)
	Warn(nil).Msg("no request")
	if !bytes.Contains(buf.Bytes(), []byte(`"message":"no request"`)) {
		t.Errorf("event = %s", buf)
	}
}

func TestStartLogdyRejectsAPIPort(t *testing.T) {
	cfg := &config.Config{Port: 8000, LogdyHost: "localhost", LogdyPort: 8000}
	if w, _, err := StartLogdy(cfg); err == nil || w != nil {
		t.Fatalf("StartLogdy on API port = %v, %v", w, err)
	}
}
