// Package stream publishes keyed JSON events to Kafka.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int
}

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer MessageWriter
	topic  string
}

// NewProducer builds a writer that hashes message keys to partitions, so all
// events with the same key keep their order.
func NewProducer(config *KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           config.BatchTimeout,
		WriteTimeout:           config.WriteTimeout,
		RequiredAcks:           kafka.RequiredAcks(config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return NewProducerWithWriter(writer, config.Topic)
}

func NewProducerWithWriter(writer MessageWriter, topic string) *Producer {
	return &Producer{writer: writer, topic: topic}
}

func (p *Producer) PublishJSON(ctx context.Context, key string, value interface{}, headers map[string]string) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
