package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReconnectPolicyDelay(t *testing.T) {
	tests := []struct {
		name    string
		policy  ReconnectPolicy
		attempt int
		want    time.Duration
	}{
		{"fixed one second", ReconnectPolicy{MaxAttempts: 1, BackoffMin: time.Second, BackoffMax: time.Second}, 0, time.Second},
		{"fixed ignores attempt", ReconnectPolicy{BackoffMin: time.Second, BackoffMax: time.Second}, 4, time.Second},
		{"exponential", ReconnectPolicy{BackoffMin: time.Second, BackoffMax: 30 * time.Second}, 3, 8 * time.Second},
		{"clamped", ReconnectPolicy{BackoffMin: time.Second, BackoffMax: 30 * time.Second}, 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestReconnectPolicyJitterStaysInBand(t *testing.T) {
	p := ReconnectPolicy{BackoffMin: time.Second, BackoffMax: time.Second, JitterPct: 20}
	for i := 0; i < 100; i++ {
		d := p.Delay(0)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("Delay with 20%% jitter out of band: %v", d)
		}
	}
}

func TestLoadIntegrationsFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worker.yaml")
	content := `
event_bus: nats
storage:
  driver: pgx
  dsn: postgres://file-dsn
nats:
  subject_prefix: fromfile
kafka:
  brokers: [a:9092, b:9092]
cameras:
  - name: Lobby
    source: rtsp://lobby
    ai_enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STORAGE_DSN", "postgres://env-dsn")

	cfg := &Config{Storage: StorageConfig{Driver: "sqlite3"}, EventBus: "none"}
	if err := cfg.loadIntegrations(path); err != nil {
		t.Fatalf("loadIntegrations: %v", err)
	}

	if cfg.Storage.Driver != "pgx" {
		t.Errorf("driver = %q, want pgx", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "postgres://env-dsn" {
		t.Errorf("dsn = %q, env should win", cfg.Storage.DSN)
	}
	if cfg.EventBus != "nats" {
		t.Errorf("event bus = %q, want nats", cfg.EventBus)
	}
	if cfg.Nats.SubjectPrefix != "fromfile" {
		t.Errorf("subject prefix = %q", cfg.Nats.SubjectPrefix)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if len(cfg.Seed) != 1 || cfg.Seed[0].SourceURI != "rtsp://lobby" || !cfg.Seed[0].AIEnabled {
		t.Errorf("seed = %+v", cfg.Seed)
	}
}

func TestLoadIntegrationsMissingFile(t *testing.T) {
	cfg := &Config{}
	if err := cfg.loadIntegrations(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
