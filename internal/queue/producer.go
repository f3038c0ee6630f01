package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"loancrm/internal/models"
)

// CustomerConvertedEvent is the message body published on RoutingKey.
type CustomerConvertedEvent struct {
	EventID    string           `json:"event_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Customer   *models.Customer `json:"customer"`
}

// channel is the part of *amqp.Channel the producer uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Producer struct {
	ch channel
}

func NewProducer(ch channel) *Producer {
	return &Producer{ch: ch}
}

func (p *Producer) PublishConverted(ctx context.Context, c *models.Customer) error {
	evt := CustomerConvertedEvent{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Customer:   c,
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    evt.EventID,
			Timestamp:    evt.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish customer.converted: %w", err)
	}
	return nil
}
