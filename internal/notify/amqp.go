package notify

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
)

// publisher is the part of *amqp.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
	Timeout    time.Duration
}

// AMQP publishes persistent collection messages to a topic exchange.
type AMQP struct {
	conn   *amqp.Connection
	ch     publisher
	cfg    AMQPConfig
	logger *zap.Logger
}

func newAMQP(ch publisher, cfg AMQPConfig, logger *zap.Logger) *AMQP {
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = EventCollected
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQP{ch: ch, cfg: cfg, logger: logger}
}

// DialAMQP connects, opens a channel and declares the exchange.
func DialAMQP(cfg AMQPConfig, logger *zap.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
		}
	}
	n := newAMQP(ch, cfg, logger)
	n.conn = conn
	return n, nil
}

func (n *AMQP) NotifyCollection(ctx context.Context, record domain.CollectionRecord) error {
	body, err := Encode(record)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err = n.ch.PublishWithContext(publishCtx, n.cfg.Exchange, n.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    record.DonationID,
		Type:         EventCollected,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", n.cfg.Exchange, n.cfg.RoutingKey, err)
	}
	n.logger.Info("collection published",
		zap.String("donation_id", record.DonationID),
		zap.String("exchange", n.cfg.Exchange),
		zap.String("routing_key", n.cfg.RoutingKey))
	return nil
}

func (n *AMQP) Close() error {
	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
