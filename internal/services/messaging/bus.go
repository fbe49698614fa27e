package messaging

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/models"
)

// EventBus publishes domain events to an external broker.
type EventBus interface {
	models.EventPublisher
	Close() error
}

// New builds the bus selected by cfg.EventBus ("nats", "kafka" or "none").
func New(cfg *config.Config) (EventBus, error) {
	switch cfg.EventBus {
	case "nats":
		return NewNATSBus(cfg.Nats, cfg.WorkerID)
	case "kafka":
		return NewKafkaBus(cfg.Kafka)
	case "none", "":
		log.Info().Msg("Event bus disabled")
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown event bus %q", cfg.EventBus)
	}
}

// Noop discards every event.
type Noop struct{}

func (Noop) PublishCount(models.CountEvent) error   { return nil }
func (Noop) PublishAlarm(models.AlarmEvent) error   { return nil }
func (Noop) PublishStatus(models.StatusEvent) error { return nil }
func (Noop) Close() error                           { return nil }
