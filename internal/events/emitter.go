// Package events publishes cart diagnostics. The only event today is the
// self-heal repair: the service silently drops structurally broken stored
// lines, and without a record of that, upstream write bugs stay invisible.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// RepairEvent records one self-heal pass that dropped stored lines.
type RepairEvent struct {
	Owner      string    `json:"owner"`
	Dropped    int       `json:"dropped"`
	Subtotal   float64   `json:"subtotal"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Emitter interface {
	CartRepaired(ctx context.Context, event RepairEvent) error
}

type KafkaEmitter struct {
	writer *kafka.Writer
}

func NewKafkaEmitter(topic string, brokers ...string) *KafkaEmitter {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaEmitter{writer: w}
}

func (e *KafkaEmitter) CartRepaired(ctx context.Context, event RepairEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal repair event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Owner),
		Value: payload,
	}
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish repair event: %w", err)
	}
	return nil
}

func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}

// NopEmitter discards events; used when no broker is configured and in tests.
type NopEmitter struct{}

func (NopEmitter) CartRepaired(context.Context, RepairEvent) error { return nil }
