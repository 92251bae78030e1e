// Package queue_publisher provides functions to publish domain events to
// RabbitMQ.  Errors are logged and returned so callers can ignore
// failures without interrupting the main request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "cinebook/internal/queue"
)

// PublishReservationConfirmed publishes a ReservationConfirmedEvent to
// the "reservation.confirmed" queue.  The function never panics; any
// error is logged and returned so the caller can choose to ignore it.
// Messages are marked as persistent.  An empty url disables publishing.
func PublishReservationConfirmed(ctx context.Context, url string, event q.ReservationConfirmedEvent) error {
    if url == "" {
        return nil
    }
    conn, err := amqp.Dial(url)
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

    // Ensure the queue exists (idempotent).  Durable so messages survive
    // broker restarts.
    if _, err := ch.QueueDeclare(
        "reservation.confirmed", // name
        true,                    // durable
        false,                   // autoDelete
        false,                   // exclusive
        false,                   // noWait
        nil,                     // args
    ); err != nil {
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

    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := ch.PublishWithContext(pctx, "", "reservation.confirmed", false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
