package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
)

// Publisher fans alert events out to the worker events exchange for the
// notification consumers.
type Publisher struct {
	conn       *Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher creates an alert-event publisher on its own channel.
func NewPublisher(conn *Connection, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// AlertEvent is the wire shape of a raised alert.
type AlertEvent struct {
	AlertID   string    `json:"alert_id"`
	SensorID  string    `json:"sensor_id"`
	HeatIndex float64   `json:"heat_index"`
	AlertType string    `json:"alert_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishAlert publishes a raised-alert event.
func (p *Publisher) PublishAlert(ctx context.Context, a *model.AlertRecord) error {
	event := AlertEvent{
		AlertID:   a.ID,
		SensorID:  a.SensorID,
		HeatIndex: a.HeatIndex,
		AlertType: string(a.AlertType),
		Message:   a.Message,
		Timestamp: a.Timestamp,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish alert event: %w", err)
	}

	p.logger.Debug("published alert event",
		zap.String("sensor_id", a.SensorID),
		zap.String("alert_type", string(a.AlertType)),
	)
	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
