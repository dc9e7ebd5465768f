package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// RabbitEventQueue implements domain.EventQueue on a durable RabbitMQ queue.
type RabbitEventQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
}

// NewRabbitEventQueue dials amqpURL and declares the queue.
func NewRabbitEventQueue(amqpURL, queue string) (*RabbitEventQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitEventQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Publish sends a persistent message through the default exchange.
func (q *RabbitEventQueue) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Kind),
		Body:         payload,
	}
	start := time.Now()
	q.mu.Lock()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, msg)
	q.mu.Unlock()
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Receive waits for the next delivery. A negative ack republishes the event
// with its attempt counter increased and acknowledges the original.
func (q *RabbitEventQueue) Receive(ctx context.Context) (domain.Event, domain.AckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.Event{}, nil, err
	}
	var d amqp.Delivery
	select {
	case <-ctx.Done():
		return domain.Event{}, nil, ctx.Err()
	case msg, ok := <-deliveries:
		if !ok {
			return domain.Event{}, nil, errors.New("rabbitmq: delivery channel closed")
		}
		d = msg
	}

	var event domain.Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		_ = d.Nack(false, false)
		return domain.Event{}, nil, fmt.Errorf("decode event: %w", err)
	}
	requeueCtx := context.WithoutCancel(ctx)
	ack := func(success bool) error {
		if success {
			return d.Ack(false)
		}
		retry := event
		retry.Attempt++
		if err := q.Publish(requeueCtx, retry); err != nil {
			_ = d.Nack(false, true)
			return err
		}
		return d.Ack(false)
	}
	return event, ack, nil
}

func (q *RabbitEventQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	if err := q.ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// Close closes the channel and the connection.
func (q *RabbitEventQueue) Close() error {
	chErr := q.ch.Close()
	connErr := q.conn.Close()
	return errors.Join(chErr, connErr)
}
