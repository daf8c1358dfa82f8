package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const OrderPlacedEvent = "OrderPlaced"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPlaced is the payload published after an order document is created.
type OrderPlaced struct {
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount float64            `json:"total_amount"`
	CreatedAt   time.Time          `json:"created_at"`
}

type OrderPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewOrderPublisher(topic string, brokers ...string) *OrderPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OrderPublisher{writer: w, timeout: 5 * time.Second}
}

// PublishOrderPlaced writes one message keyed by order id, so events for an order stay ordered.
func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(OrderPlaced{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(OrderPlacedEvent)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
