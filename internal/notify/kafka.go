package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
)

// Kafka publishes collection messages keyed by donation id so every event
// for one donation lands on the same partition.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewKafka(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Kafka {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kafka{producer: producer, topic: topic, logger: logger}
}

// DialKafka opens a sync producer against the given brokers.
func DialKafka(brokers []string, topic string, logger *zap.Logger) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafka(producer, topic, logger), nil
}

func (k *Kafka) NotifyCollection(ctx context.Context, record domain.CollectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := Encode(record)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(record.DonationID),
		Value: sarama.ByteEncoder(body),
	}
	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", k.topic, err)
	}
	k.logger.Info("collection published",
		zap.String("donation_id", record.DonationID),
		zap.String("topic", k.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
