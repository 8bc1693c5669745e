package eventsink

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// AMQPSink publishes to a fanout exchange.
type AMQPSink struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewAMQPSink dials the broker and declares the exchange.
func NewAMQPSink(_ context.Context, cfg config.AMQPSinkConfig) (*AMQPSink, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logging.Info().
		Str("exchange", cfg.Exchange).
		Msg("AMQP publisher ready")

	return &AMQPSink{conn: conn, channel: ch, exchange: cfg.Exchange, routingKey: cfg.RoutingKey}, nil
}

// Send publishes each message of the batch.
func (a *AMQPSink) Send(ctx context.Context, batch []Message) error {
	for _, m := range batch {
		if err := a.channel.PublishWithContext(ctx, a.exchange, a.routingKey, false, false, publishing(m, time.Now())); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", a.exchange, err)
		}
	}
	return nil
}

func publishing(m Message, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Headers:      amqp.Table{"partitionKey": m.Key},
		Body:         m.Value,
	}
}

// Close closes the channel and connection.
func (a *AMQPSink) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// Name returns "amqp:<exchange>".
func (a *AMQPSink) Name() string { return "amqp:" + a.exchange }
