package repository

import (
	"context"
	"strings"

	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	pkgkafka "seismograph/pkg/kafka"
)

// KafkaStatePublisher publishes regime transitions keyed by symbol so one
// symbol's transitions stay ordered within a partition.
type KafkaStatePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.StatePublisher = (*KafkaStatePublisher)(nil)

func NewKafkaStatePublisher(producer *pkgkafka.Producer, topic string) *KafkaStatePublisher {
	return &KafkaStatePublisher{producer: producer, topic: topic}
}

func (p *KafkaStatePublisher) PublishTransition(ctx context.Context, t models.RegimeTransition) error {
	return p.producer.Publish(ctx, p.topic, []byte(strings.ToUpper(t.Symbol)), t)
}

func (p *KafkaStatePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
