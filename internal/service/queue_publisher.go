package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/hostaria/hotel-reservation-api/internal/queue"
)

// publishEvent marshals an event and publishes it persistently to the named
// queue on the default exchange.  Any error is logged and returned so
// callers can ignore broker outages without interrupting the request flow.
func publishEvent(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// PublishReservationConfirmed publishes to the reservation.confirmed queue.
func PublishReservationConfirmed(ctx context.Context, event q.ReservationConfirmedEvent) error {
	return publishEvent(ctx, "reservation.confirmed", event)
}

// PublishInvoiceVoided publishes to the invoice.voided queue.
func PublishInvoiceVoided(ctx context.Context, event q.InvoiceVoidedEvent) error {
	return publishEvent(ctx, "invoice.voided", event)
}
