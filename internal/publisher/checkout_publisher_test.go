package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type fakeWriter struct {
	messages []kafkaGo.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestEvent() domain.CheckoutCompletedEvent {
	return domain.CheckoutCompletedEvent{
		OrderID:    "7d3f0a4e-0000-4000-8000-000000000001",
		OrderCode:  "ORD-12345678-ABCDEF",
		CustomerID: "cust-1",
		Items: []domain.CartItem{
			{ProductID: "p1", ProductName: "Rice", UnitPrice: 20, Quantity: 2},
		},
		TotalAmount: 55,
		PaymentMode: "Mobile Money",
		CompletedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublishCheckoutCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := NewCheckoutPublisherWithWriter(w)

	err := p.PublishCheckoutCompleted(context.Background(), newTestEvent())
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "ORD-12345678-ABCDEF", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventTypeCheckoutCompleted, string(msg.Headers[0].Value))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "cust-1", payload["customer_id"])
	assert.Equal(t, 55.0, payload["total_amount"])
}

func TestPublishCheckoutCompleted_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := NewCheckoutPublisherWithWriter(w)

	err := p.PublishCheckoutCompleted(context.Background(), newTestEvent())
	assert.ErrorContains(t, err, "broker unavailable")
	assert.ErrorContains(t, err, "ORD-12345678-ABCDEF")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewCheckoutPublisherWithWriter(w).Close())
	assert.True(t, w.closed)
}

func setupKafka(t *testing.T) (string, func()) {
	if testing.Short() {
		t.Skip("kafka container test")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestCheckoutPublisher_WritesToKafka(t *testing.T) {
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()
	createTopic(t, brokerAddr, DefaultTopic)

	p := NewCheckoutPublisher(DefaultTopic, brokerAddr)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, p.PublishCheckoutCompleted(ctx, newTestEvent()))

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    DefaultTopic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-12345678-ABCDEF", string(msg.Key))

	var event domain.CheckoutCompletedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, newTestEvent(), event)
}
