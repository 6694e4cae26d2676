package repository

import (
	"context"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
)

// MessageProducer is the subset of the Kafka producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSnapshotPublisher publishes run summaries keyed by symbol so every
// snapshot of one instrument lands on the same partition.
type KafkaSnapshotPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaSnapshotPublisher(producer MessageProducer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) PublishSnapshot(ctx context.Context, s models.Snapshot) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)
