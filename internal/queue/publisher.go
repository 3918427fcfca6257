package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher delivers reservation lifecycle events to RabbitMQ.  It dials
// per publish and never panics; errors are logged and returned so callers
// can ignore broker failures without interrupting the main request flow.
// Messages are marked persistent and the queue is declared durable.
type Publisher struct {
	url string
	log zerolog.Logger
}

// NewPublisher returns a publisher dialing the given AMQP URL.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishReservationEvent sends ev to the reservation.events queue.
func (p *Publisher) PublishReservationEvent(ctx context.Context, ev Event) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", EventsQueue, false, false, pub); err != nil {
		p.log.Warn().Err(err).Str("type", ev.Type).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
