package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name on a direct exchange
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishActivity sends one activity event as a persistent message.
func (c *Client) PublishActivity(ctx context.Context, msg *ExpenseActivityMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Type:         "expense." + msg.Action,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "Published expense activity",
		"component", "amqp",
		"action", msg.Action,
		"expense_id", msg.ExpenseID,
		"exchange", c.exchangeName)

	return nil
}

// ActivityHandler processes one decoded event. A returned error requeues the delivery.
type ActivityHandler func(ctx context.Context, msg *ExpenseActivityMessage) error

// ConsumeActivity blocks, dispatching deliveries to handler until ctx is done.
func (c *Client) ConsumeActivity(ctx context.Context, handler ActivityHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming expense activity", "component", "amqp", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "component", "amqp", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			settle(delivery, dispatch(ctx, delivery.Body, handler))
		}
	}
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeReject
)

// dispatch decodes body and runs handler. Malformed bodies are rejected outright.
func dispatch(ctx context.Context, body []byte, handler ActivityHandler) outcome {
	msg, err := ExpenseActivityMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode activity message", "component", "amqp", "error", err)
		return outcomeReject
	}
	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle activity message",
			"component", "amqp",
			"error", err,
			"action", msg.Action,
			"expense_id", msg.ExpenseID)
		return outcomeRequeue
	}
	return outcomeAck
}

func settle(d amqp091.Delivery, o outcome) {
	var err error
	switch o {
	case outcomeAck:
		err = d.Ack(false)
	case outcomeRequeue:
		err = d.Nack(false, true)
	case outcomeReject:
		err = d.Nack(false, false)
	}
	if err != nil {
		slog.Error("Failed to settle delivery", "component", "amqp", "error", err)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
