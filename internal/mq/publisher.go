package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/db"
)

// EventReadingIngested is the event type published for every stored reading
const EventReadingIngested = "reading.ingested"

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes JSON messages to a topic exchange
type Publisher struct {
	channel    publishChannel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher declares exchange and returns a publisher that sends reading
// events with routingKey
func NewPublisher(conn *Connection, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := declareTopicExchange(ch, exchange); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// ReadingEvent is published after a reading is persisted
type ReadingEvent struct {
	EventType string    `json:"event_type"`
	ReadingID string    `json:"reading_id"`
	PatientID string    `json:"patient_id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyReading publishes a reading.ingested event for reading
func (p *Publisher) NotifyReading(ctx context.Context, reading db.Reading) error {
	event := ReadingEvent{
		EventType: EventReadingIngested,
		ReadingID: reading.ID,
		PatientID: reading.PatientID,
		Metric:    reading.Metric,
		Value:     reading.Value,
		Unit:      reading.Unit,
		Timestamp: reading.Timestamp,
	}
	if err := p.PublishJSON(ctx, p.routingKey, event); err != nil {
		return err
	}

	p.logger.Debug("published reading event",
		zap.String("routing_key", p.routingKey),
		zap.String("patient_id", reading.PatientID),
		zap.String("metric", reading.Metric),
	)
	return nil
}

// PublishJSON marshals v and publishes it as a persistent message
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.exchange, err)
	}
	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
