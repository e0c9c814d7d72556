package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	portssvc "github.com/SscSPs/wallet_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger_app/internal/middleware"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives one message per committed ledger operation.
const DefaultTopic = "wallet.transaction_committed"

// messageWriter is the part of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes JSON encoded events to a single Kafka topic.
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // events with one key stay on one partition
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}, topic)
}

func newPublisher(writer messageWriter, topic string) *Publisher {
	return &Publisher{writer: writer, topic: topic}
}

var _ portssvc.EventPublisher = (*Publisher)(nil)

// Publish encodes the event as JSON and writes it under the given key.
func (p *Publisher) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event for topic %s: %w", p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if requestID, ok := middleware.GetRequestIDFromCtx(ctx); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "request-id", Value: []byte(requestID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
