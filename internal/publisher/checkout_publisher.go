package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic               = "checkout-outbox"
	EventTypeCheckoutCompleted = "checkout.completed"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type CheckoutPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewCheckoutPublisher(topic string, brokers ...string) *CheckoutPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return NewCheckoutPublisherWithWriter(w)
}

func NewCheckoutPublisherWithWriter(w MessageWriter) *CheckoutPublisher {
	return &CheckoutPublisher{writer: w, timeout: 5 * time.Second}
}

// PublishCheckoutCompleted writes the event keyed by order code so all events
// for one order land on the same partition.
func (p *CheckoutPublisher) PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal checkout completed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderCode),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeCheckoutCompleted)},
		},
		Time: event.CompletedAt,
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("publish checkout completed %s: %w", event.OrderCode, err)
	}
	return nil
}

func (p *CheckoutPublisher) Close() error {
	return p.writer.Close()
}
