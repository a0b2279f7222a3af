package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fjacquet/stmt-categorizer/internal/logging"
)

// DefaultExchange and DefaultRoutingKey are used when the configuration
// leaves them empty.
const (
	DefaultExchange   = "stmt-categorizer"
	DefaultRoutingKey = "import.completed"

	publishTimeout = 5 * time.Second
)

// Publisher sends import notifications.
type Publisher interface {
	PublishImportCompleted(ctx context.Context, msg ImportCompleted) error
	Close() error
}

// NoopPublisher discards every message.
type NoopPublisher struct{}

// PublishImportCompleted does nothing.
func (NoopPublisher) PublishImportCompleted(context.Context, ImportCompleted) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON messages to a durable direct exchange.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    channel
	exchange   string
	routingKey string
	logger     logging.Logger

	mu sync.Mutex
}

// NewAMQPPublisher dials url and declares the exchange and a durable queue
// bound to routingKey.
func NewAMQPPublisher(url, exchange, routingKey string, logger logging.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if routingKey == "" {
		routingKey = DefaultRoutingKey
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(ch, exchange, routingKey); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	p := newPublisher(ch, exchange, routingKey, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange, routingKey string, logger logging.Logger) *AMQPPublisher {
	return &AMQPPublisher{channel: ch, exchange: exchange, routingKey: routingKey, logger: logger}
}

func setup(ch *amqp091.Channel, exchange, routingKey string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		routingKey, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(routingKey, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishImportCompleted publishes msg as a persistent JSON message.
func (p *AMQPPublisher) PublishImportCompleted(ctx context.Context, msg ImportCompleted) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp091 channels are not safe for concurrent publishing.
	p.mu.Lock()
	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ImportID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.Info("Published import event",
		logging.Field{Key: logging.FieldImportID, Value: msg.ImportID},
		logging.Field{Key: "exchange", Value: p.exchange},
		logging.Field{Key: "routing_key", Value: p.routingKey})
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
