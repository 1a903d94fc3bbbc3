package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/core"
)

// Client publishes and consumes expense export messages over a durable
// direct exchange. Sync and delete messages share one queue and are routed
// by the envelope type tag.
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

	// Routing key matches the queue name on a direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishExpenseSync asks the worker to export the expense with the given id.
func (c *Client) PublishExpenseSync(ctx context.Context, id, version int64) error {
	msg := NewExpenseSyncMessage(id, version)
	if err := c.publish(ctx, messageTypeSync, msg); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published expense sync message",
		"id", id,
		"version", version,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// PublishExpenseDelete asks the worker to remove the expense from the export
// target. The expense row is already deleted locally.
func (c *Client) PublishExpenseDelete(ctx context.Context, e core.Expense) error {
	msg := NewExpenseDeleteMessage(e)
	if err := c.publish(ctx, messageTypeDelete, msg); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published expense delete message",
		"id", e.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, payload any) error {
	body, err := encodeMessage(msgType, payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
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
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

// ConsumeMessages blocks and dispatches queue messages to the handlers until
// the context is cancelled. A handler error nacks the delivery with requeue;
// a malformed message is nacked without requeue.
func (c *Client) ConsumeMessages(
	ctx context.Context,
	syncHandler func(context.Context, *ExpenseSyncMessage) error,
	deleteHandler func(context.Context, *ExpenseDeleteMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming expense messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.dispatch(ctx, delivery.Body, syncHandler, deleteHandler); err != nil {
				if isMalformed(err) {
					slog.ErrorContext(ctx, "Dropping malformed message", "error", err)
					delivery.Nack(false, false)
					continue
				}
				slog.ErrorContext(ctx, "Failed to handle message", "error", err)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

type malformedError struct{ err error }

func (e malformedError) Error() string { return e.err.Error() }
func (e malformedError) Unwrap() error { return e.err }

func isMalformed(err error) bool {
	_, ok := err.(malformedError)
	return ok
}

func (c *Client) dispatch(
	ctx context.Context,
	body []byte,
	syncHandler func(context.Context, *ExpenseSyncMessage) error,
	deleteHandler func(context.Context, *ExpenseDeleteMessage) error,
) error {
	env, err := decodeEnvelope(body)
	if err != nil {
		return malformedError{err}
	}

	switch env.Type {
	case messageTypeSync:
		var msg ExpenseSyncMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return malformedError{fmt.Errorf("unmarshal sync payload: %w", err)}
		}
		return syncHandler(ctx, &msg)
	case messageTypeDelete:
		var msg ExpenseDeleteMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return malformedError{fmt.Errorf("unmarshal delete payload: %w", err)}
		}
		return deleteHandler(ctx, &msg)
	default:
		return malformedError{fmt.Errorf("unknown message type %q", env.Type)}
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
