package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/models"
)

// NATSBus publishes events on <prefix>.<kind>.<camera id>.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSBus(cfg config.NatsConfig, name string) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("linewatch-" + name),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	log.Info().Str("url", cfg.URL).Msg("NATS connection established")
	return &NATSBus{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

// Subject returns the subject for an event kind and camera.
func Subject(prefix, kind string, cameraID int64) string {
	return fmt.Sprintf("%s.%s.%d", prefix, kind, cameraID)
}

func (b *NATSBus) publish(kind string, cameraID int64, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return b.conn.Publish(Subject(b.prefix, kind, cameraID), payload)
}

func (b *NATSBus) PublishCount(e models.CountEvent) error {
	return b.publish("counts", e.CameraID, e)
}

func (b *NATSBus) PublishAlarm(e models.AlarmEvent) error {
	return b.publish("alarms", e.CameraID, e)
}

func (b *NATSBus) PublishStatus(e models.StatusEvent) error {
	return b.publish("status", e.CameraID, e)
}

func (b *NATSBus) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}

func (b *NATSBus) Close() error {
	if b.conn == nil {
		return nil
	}
	// Try graceful drain, fallback to immediate close
	if err := b.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
		b.conn.Close()
	}
	return nil
}
