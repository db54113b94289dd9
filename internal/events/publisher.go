// Package events delivers roster change events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"example.com/roster/internal/domain"
)

// Header keys set on every roster record.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes roster events to a single topic.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a KafkaPublisher for topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}}
}

// WriteEvents publishes events in one batch. Records are keyed by activity so a
// roster's history stays on one partition.
func (p *KafkaPublisher) WriteEvents(ctx context.Context, events ...domain.RosterEvent) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := EncodeEvent(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EncodeEvent converts event into a Kafka record.
func EncodeEvent(event domain.RosterEvent) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", event.EventType, err)
	}
	return kafka.Message{
		Key:   []byte(event.Activity),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.EventType)},
			{Key: HeaderEventID, Value: []byte(event.EventID)},
		},
	}, nil
}
