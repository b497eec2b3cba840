// Package events publishes finished orders to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"swimshop/internal/config"
	"swimshop/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// OrderPlaced is emitted once per committed checkout.
type OrderPlaced struct {
	OrderID  int64             `json:"orderId"`
	UserID   *int64            `json:"userId"`
	Total    int64             `json:"total"`
	Items    []OrderPlacedItem `json:"items"`
	PlacedAt time.Time         `json:"placedAt"`
}

// OrderPlacedItem is one line of an OrderPlaced event.
type OrderPlacedItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
}

// NewOrderPlaced builds the event for a committed order.
func NewOrderPlaced(order *model.Order, lines []model.OrderLine, placedAt time.Time) OrderPlaced {
	items := make([]OrderPlacedItem, len(lines))
	for i, line := range lines {
		item := OrderPlacedItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		}
		if line.Discount != nil {
			item.Discount = *line.Discount
		}
		items[i] = item
	}

	return OrderPlaced{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Total:    order.Total,
		Items:    items,
		PlacedAt: placedAt.UTC(),
	}
}

// Publisher sends order events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher implements Publisher on top of a Kafka writer.
type kafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}

	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger zerolog.Logger) *kafkaPublisher {
	return &kafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "order-events").Logger(),
	}
}

// PublishOrderPlaced writes the event keyed by order ID.
func (p *kafkaPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("order.placed")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Int64("order_id", event.OrderID).Msg("failed to publish order event")
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.Debug().Int64("order_id", event.OrderID).Msg("order event published")

	return nil
}

// Close flushes and closes the writer.
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that discards events.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (nopPublisher) Close() error { return nil }
