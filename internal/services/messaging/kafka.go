package messaging

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/models"
)

// KafkaBus writes one topic per event kind, keyed by camera id.
type KafkaBus struct {
	producer sarama.SyncProducer
	topics   config.KafkaConfig
}

func NewKafkaBus(cfg config.KafkaConfig) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka event bus needs at least one broker")
	}

	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	log.Info().Strs("brokers", cfg.Brokers).Msg("Kafka producer ready")
	return NewKafkaBusWithProducer(producer, cfg), nil
}

// NewKafkaBusWithProducer wraps an existing producer.
func NewKafkaBusWithProducer(p sarama.SyncProducer, cfg config.KafkaConfig) *KafkaBus {
	return &KafkaBus{producer: p, topics: cfg}
}

func (b *KafkaBus) send(topic string, cameraID int64, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, _, err = b.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(cameraID, 10)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	return nil
}

func (b *KafkaBus) PublishCount(e models.CountEvent) error {
	return b.send(b.topics.CountTopic, e.CameraID, e)
}

func (b *KafkaBus) PublishAlarm(e models.AlarmEvent) error {
	return b.send(b.topics.AlarmTopic, e.CameraID, e)
}

func (b *KafkaBus) PublishStatus(e models.StatusEvent) error {
	return b.send(b.topics.StatusTopic, e.CameraID, e)
}

func (b *KafkaBus) Close() error {
	if err := b.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
