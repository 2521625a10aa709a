package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes events to a single topic keyed by entity id.
// Publish never blocks the caller beyond the writer timeout and never
// returns an error: a lost event is logged, not retried, because the
// owning transaction has already committed.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.log.Error("marshal event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.EntityID),
		Value: value,
		Time:  event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("publish event",
			zap.String("type", event.Type),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
		return
	}
	p.log.Debug("published event", zap.String("type", event.Type), zap.String("entity_id", event.EntityID))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
