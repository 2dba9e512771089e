package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"incubator_monitor/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes alerts keyed by device id, so one device's alerts stay ordered.
type Kafka struct {
	w messageWriter
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}}
}

func (k *Kafka) Notify(ctx context.Context, a models.AlertRecord) error {
	b, err := json.Marshal(newEvent(a))
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(a.DeviceID), Value: b}); err != nil {
		return fmt.Errorf("kafka publish alert %s: %w", a.ID, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
