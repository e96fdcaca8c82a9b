package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EventPublisher = (*EventPublisher)(nil)

// DefaultTopic receives every domain event
const DefaultTopic = "ragcompare.events"

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds Kafka producer settings
type Config struct {
	Brokers []string
	Topic   string
}

// EventPublisher appends domain events to a Kafka topic.
// Messages are keyed by document ID so one document's events stay ordered.
type EventPublisher struct {
	writer messageWriter
	topic  string
}

// NewEventPublisher creates a publisher writing to cfg.Topic
func NewEventPublisher(cfg Config) (*EventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one kafka broker is required", domain.ErrInvalidInput)
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newEventPublisher(writer, topic), nil
}

func newEventPublisher(writer messageWriter, topic string) *EventPublisher {
	return &EventPublisher{writer: writer, topic: topic}
}

// Topic returns the topic events are written to
func (p *EventPublisher) Topic() string {
	return p.topic
}

// Publish writes the event as a JSON message with an event_type header
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}

	msg := kafka.Message{
		Key:   []byte(eventKey(event)),
		Value: payload,
		Time:  event.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event to kafka: %w", event.EventType(), err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}

func eventKey(event domain.DomainEvent) string {
	switch e := event.(type) {
	case domain.DocumentUploadedEvent:
		return e.DocumentID
	case *domain.DocumentUploadedEvent:
		return e.DocumentID
	default:
		return string(event.EventType())
	}
}
