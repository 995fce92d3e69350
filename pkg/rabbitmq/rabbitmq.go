package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"eshop/internal/models"

	"github.com/rs/zerolog"
	amqp "github.com/streadway/amqp"
)

const (
	// DefaultExchange is the topic exchange order events are published to.
	DefaultExchange = "orders"
	// DefaultQueue receives every order.* event.
	DefaultQueue = "order_events"
	bindingKey   = "order.*"
)

// ErrNotConnected is returned when the client has no open channel.
var ErrNotConnected = errors.New("RabbitMQ channel is not available")

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	log      zerolog.Logger
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
	Queue    string
}

// NewClient connects to RabbitMQ, declares the order exchange and binds the event queue to it.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, cfg.Exchange, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("exchange", cfg.Exchange).Str("queue", cfg.Queue).Msg("rabbitmq client connected")

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		log:      log,
	}, nil
}

func declareTopology(ch *amqp.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, bindingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message to the exchange under routingKey.
func (c *Client) Publish(routingKey string, body []byte) error {
	if c == nil || c.channel == nil {
		return ErrNotConnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishOrderEvent publishes event with its type as routing key.
// Failures are logged and returned; callers may ignore them.
func (c *Client) PublishOrderEvent(event models.OrderEvent) error {
	if c == nil {
		return ErrNotConnected
	}
	body, err := EncodeOrderEvent(event)
	if err != nil {
		return err
	}
	if err := c.Publish(string(event.Type), body); err != nil {
		c.log.Warn().Err(err).Str("event", string(event.Type)).Str("order_id", event.OrderID).Msg("order event not published")
		return err
	}
	c.log.Debug().Str("event", string(event.Type)).Str("order_id", event.OrderID).Msg("order event published")
	return nil
}

// ConsumeOrderEvents starts a goroutine that hands every queued message to
// messageHandler. Messages are acked on success and requeued on error.
func (c *Client) ConsumeOrderEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c == nil || c.channel == nil {
		return ErrNotConnected
	}

	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info().Str("queue", c.queue).Msg("waiting for order events")

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				c.log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to process message")
				if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
					c.log.Error().Err(nackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to nack message")
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.log.Error().Err(ackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to ack message")
			}
		}
		c.log.Info().Str("queue", c.queue).Msg("order event consumer stopped")
	}()

	return nil
}

// EncodeOrderEvent serializes an event to its wire form.
func EncodeOrderEvent(event models.OrderEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	return body, nil
}

// DecodeOrderEvent parses a message body produced by EncodeOrderEvent.
func DecodeOrderEvent(body []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.OrderEvent{}, fmt.Errorf("failed to decode order event: %w", err)
	}
	if event.Type == "" || event.OrderID == "" {
		return models.OrderEvent{}, errors.New("order event is missing its type or order id")
	}
	return event, nil
}

// LogOrderEvents returns a consumer handler that records each event in log.
// Malformed messages are rejected so they are requeued once and then dropped.
func LogOrderEvents(log zerolog.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		event, err := DecodeOrderEvent(msg.Body)
		if err != nil {
			return err
		}
		log.Info().
			Str("event", string(event.Type)).
			Str("order_id", event.OrderID).
			Str("user_id", event.UserID).
			Str("status", string(event.Status)).
			Str("total", models.FormatCents(event.Total)).
			Msg("order event received")
		return nil
	}
}
