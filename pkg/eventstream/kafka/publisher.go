// Package kafka publishes memory events to a Kafka topic for external
// consumers (analytics, replication). Delivery is at-least-once; consumers
// must tolerate duplicate event ids.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	segmentio "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/recall/pkg/eventstream"
)

// Publisher writes memory events to a Kafka topic, keyed by conversation id
// so events for one conversation stay ordered within a partition.
type Publisher struct {
	writer *segmentio.Writer
}

// NewPublisher creates a Kafka publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	writer := &segmentio.Writer{
		Addr:     segmentio.TCP(brokers...),
		Topic:    topic,
		Balancer: &segmentio.Hash{},
	}

	return &Publisher{writer: writer}, nil
}

// PublishMemory serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishMemory(ctx context.Context, event *eventstream.MemoryEvent) error {
	if event == nil {
		return eventstream.ErrNilMemoryEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling memory event: %w", err)
	}

	msg := segmentio.Message{
		Key:   []byte(event.ConversationID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing memory event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
