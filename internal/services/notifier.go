package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

// SessionNotifier pushes session changes to interested clients.
type SessionNotifier interface {
	Publish(ctx context.Context, session Session) error
}

type NoopNotifier struct{}

func (NoopNotifier) Publish(ctx context.Context, session Session) error {
	return nil
}

// AMQPNotifier publishes session updates to a topic exchange, routed by
// "session.<id>".
type AMQPNotifier struct {
	conn     *amqp.Connection
	exchange string
	mu       sync.Mutex
}

func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Printf("✅ Publishing session updates to exchange '%s'\n", exchange)
	return &AMQPNotifier{conn: conn, exchange: exchange}, nil
}

func (n *AMQPNotifier) Publish(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(SessionView(session))
	if err != nil {
		return fmt.Errorf("failed to encode session update: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	return ch.Publish(
		n.exchange,
		fmt.Sprintf("session.%s", session.ID),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (n *AMQPNotifier) Close() error {
	return n.conn.Close()
}
