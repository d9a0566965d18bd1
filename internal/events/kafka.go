package events

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

type Kafka struct {
	producer *kafka.Producer
	topic    string
	log      *zap.Logger
	done     chan struct{}
}

func NewKafka(brokers, topic string, log *zap.Logger) (*Kafka, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"linger.ms":         20,
	})
	if err != nil {
		return nil, fmt.Errorf("events: kafka producer: %w", err)
	}
	k := &Kafka{producer: p, topic: topic, log: log, done: make(chan struct{})}
	go k.reports()
	log.Info("kafka publisher ready", zap.String("topic", topic))
	return k, nil
}

// reports drains delivery reports until the producer is closed.
func (k *Kafka) reports() {
	defer close(k.done)
	for ev := range k.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				k.log.Warn("kafka delivery failed", zap.Error(e.TopicPartition.Error))
			}
		case kafka.Error:
			k.log.Error("kafka error", zap.Error(e))
		}
	}
}

func (k *Kafka) Publish(_ context.Context, e Event) {
	b, err := e.Encode()
	if err != nil {
		k.log.Error("kafka encode event", zap.Error(err))
		return
	}
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            e.Key(),
		Value:          b,
	}, nil)
	if err != nil {
		k.log.Warn("kafka produce", zap.String("type", e.Type), zap.Error(err))
	}
}

// Close flushes pending messages for up to five seconds.
func (k *Kafka) Close() {
	if left := k.producer.Flush(5000); left > 0 {
		k.log.Warn("kafka flush incomplete", zap.Int("pending", left))
	}
	k.producer.Close()
	<-k.done
}
