package config

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Admin token for privileged routes (bcrypt hash, empty disables the check)
	AdminTokenHash string

	// Pipeline
	FrameInterval       time.Duration
	MaxCameras          int
	CaptureBufferSize   int
	StopGracePeriod     time.Duration
	ActionWorkers       int
	ActionTimeout       time.Duration
	AlarmCooldown       time.Duration
	ScreenshotCooldown  time.Duration
	TrackingRadius      float64
	RearmDistance       float64
	CountedClass        string
	JPEGQuality         int
	DashboardInterval   time.Duration
	DashboardLogEntries int

	// Reconnect policy applied when a frame read comes back empty
	Reconnect ReconnectPolicy

	// Detection
	ModelDir             string
	DefaultDetector      string
	AIGRPCURL            string
	AITimeout            time.Duration
	DefaultConfThreshold float64
	DefaultIoUThreshold  float64
	FallbackConf         float64
	FallbackIoU          float64
	CascadePath          string

	// Artifacts on local disk
	DefaultVideoFolder      string
	DefaultScreenshotFolder string
	FFmpegPath              string

	// Swagger Configuration
	SwaggerHost string

	// Graceful Shutdown
	ShutdownTimeout time.Duration

	// Integrations, overridable from CONFIG_FILE and parsed with struct tags
	Storage  StorageConfig  `yaml:"storage"`
	Nats     NatsConfig     `yaml:"nats"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Minio    MinioConfig    `yaml:"minio"`
	EventBus string         `yaml:"event_bus" env:"EVENT_BUS"`
	Seed     []CameraSeed   `yaml:"cameras"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
	DSN    string `yaml:"dsn" env:"STORAGE_DSN"`
}

type NatsConfig struct {
	URL            string        `yaml:"url" env:"NATS_URL"`
	SubjectPrefix  string        `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"NATS_CONNECT_TIMEOUT"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait" env:"NATS_RECONNECT_WAIT"`
	MaxReconnects  int           `yaml:"max_reconnects" env:"NATS_MAX_RECONNECTS"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	CountTopic  string   `yaml:"count_topic" env:"KAFKA_COUNT_TOPIC"`
	AlarmTopic  string   `yaml:"alarm_topic" env:"KAFKA_ALARM_TOPIC"`
	StatusTopic string   `yaml:"status_topic" env:"KAFKA_STATUS_TOPIC"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
	Secure    bool   `yaml:"secure" env:"MINIO_SECURE"`
}

// CameraSeed is a camera inserted on startup when the store has none with that name.
type CameraSeed struct {
	Name      string `yaml:"name"`
	Location  string `yaml:"location"`
	SourceURI string `yaml:"source"`
	AIEnabled bool   `yaml:"ai_enabled"`
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	cfg := &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),

		// Pipeline
		FrameInterval:       getEnvDuration("FRAME_INTERVAL", 33*time.Millisecond),
		MaxCameras:          getEnvInt("MAX_CAMERAS", 16),
		CaptureBufferSize:   getEnvInt("CAPTURE_BUFFER_SIZE", 1),
		StopGracePeriod:     getEnvDuration("STOP_GRACE_PERIOD", 10*time.Second),
		ActionWorkers:       getEnvInt("ACTION_WORKERS", 4),
		ActionTimeout:       getEnvDuration("ACTION_TIMEOUT", 30*time.Second),
		AlarmCooldown:       getEnvDuration("ALARM_COOLDOWN", 10*time.Second),
		ScreenshotCooldown:  getEnvDuration("SCREENSHOT_COOLDOWN", 10*time.Second),
		TrackingRadius:      getEnvFloat("TRACKING_RADIUS", 100),
		RearmDistance:       getEnvFloat("REARM_DISTANCE", 50),
		CountedClass:        getEnv("COUNTED_CLASS", "person"),
		JPEGQuality:         getEnvInt("JPEG_QUALITY", 80),
		DashboardInterval:   getEnvDuration("DASHBOARD_INTERVAL", time.Second),
		DashboardLogEntries: getEnvInt("DASHBOARD_LOG_ENTRIES", 7),

		Reconnect: ReconnectPolicy{
			MaxAttempts: getEnvInt("RECONNECT_MAX_ATTEMPTS", 1),
			BackoffMin:  getEnvDuration("RECONNECT_BACKOFF_MIN", time.Second),
			BackoffMax:  getEnvDuration("RECONNECT_BACKOFF_MAX", time.Second),
			JitterPct:   getEnvInt("RECONNECT_JITTER_PCT", 0),
		},

		// Detection
		ModelDir:             getEnv("MODEL_DIR", "static/models"),
		DefaultDetector:      getEnv("DEFAULT_DETECTOR", "yolov8"),
		AIGRPCURL:            getEnv("AI_GRPC_URL", "localhost:50052"),
		AITimeout:            getEnvDuration("AI_TIMEOUT", 5*time.Second),
		DefaultConfThreshold: getEnvFloat("DEFAULT_CONF_THRESHOLD", 0.40),
		DefaultIoUThreshold:  getEnvFloat("DEFAULT_IOU_THRESHOLD", 0.70),
		FallbackConf:         getEnvFloat("FALLBACK_CONF_THRESHOLD", 0.25),
		FallbackIoU:          getEnvFloat("FALLBACK_IOU_THRESHOLD", 0.70),
		CascadePath:          getEnv("CASCADE_PATH", "/usr/share/opencv4/haarcascades/haarcascade_frontalface_default.xml"),

		DefaultVideoFolder:      getEnv("VIDEO_FOLDER", "static/videos"),
		DefaultScreenshotFolder: getEnv("SCREENSHOT_FOLDER", "static/screenshots"),
		FFmpegPath:              getEnv("FFMPEG_PATH", "ffmpeg"),

		SwaggerHost: getEnv("SWAGGER_HOST", "localhost:8000"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "file:linewatch.db?_foreign_keys=on",
		},
		Nats: NatsConfig{
			URL:            "nats://localhost:4222",
			SubjectPrefix:  "linewatch",
			ConnectTimeout: 10 * time.Second,
			ReconnectWait:  2 * time.Second,
			MaxReconnects:  -1, // unlimited
		},
		Kafka: KafkaConfig{
			CountTopic:  "linewatch.counts",
			AlarmTopic:  "linewatch.alarms",
			StatusTopic: "linewatch.status",
		},
		Minio: MinioConfig{
			Bucket: "linewatch-artifacts",
		},
		EventBus: "none",
	}

	if err := cfg.loadIntegrations(getEnv("CONFIG_FILE", "")); err != nil {
		log.Warn().Err(err).Msg("Failed to load integration config, using defaults")
	}

	return cfg
}

// loadIntegrations reads the optional YAML file and then lets tagged env vars win.
func (c *Config) loadIntegrations(path string) error {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("Loaded integration config file")
	}

	// Parse every tagged section with env priority over file values
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse integration env: %w", err)
	}
	if c.EventBus == "" {
		c.EventBus = "none"
	}
	return nil
}

// ReconnectPolicy bounds how often and how long a pipeline retries a dead stream.
type ReconnectPolicy struct {
	MaxAttempts int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	JitterPct   int
}

// Delay returns the jittered exponential delay before reconnect attempt n (0-based).
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt))) * p.BackoffMin

	if baseDelay < p.BackoffMin {
		baseDelay = p.BackoffMin
	}
	if p.BackoffMax > 0 && baseDelay > p.BackoffMax {
		baseDelay = p.BackoffMax
	}
	if p.JitterPct <= 0 {
		return baseDelay
	}

	jitterPct := float64(p.JitterPct) / 100.0
	jitter := time.Duration(float64(baseDelay) * jitterPct * (rand.Float64()*2 - 1))
	return baseDelay + jitter
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
