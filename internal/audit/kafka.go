package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

var tracer = otel.Tracer("github.com/odyssey-erp/stockboard/internal/audit")

// Producer is the subset of the kafka client used by KafkaSink.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaSink mirrors audit logs to a Kafka topic keyed by entity id.
type KafkaSink struct {
	producer Producer
	topic    string
	close    func()
}

// NewKafkaSink dials brokers and verifies connectivity.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("audit: create kafka client: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("audit: ping kafka: %w", err)
	}
	return &KafkaSink{producer: cl, topic: topic, close: cl.Close}, nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(producer Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// Name identifies the sink in logs.
func (k *KafkaSink) Name() string { return "kafka" }

// Publish produces log as JSON and waits for the broker ack.
func (k *KafkaSink) Publish(ctx context.Context, log inventory.AuditLog) error {
	ctx, span := tracer.Start(ctx, "KafkaSink.Publish",
		trace.WithAttributes(
			attribute.String("topic", k.topic),
			attribute.String("entity_type", string(log.EntityType)),
		),
	)
	defer span.End()

	payload, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("audit: encode log: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(log.EntityID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(log.Action)},
			{Key: "entity_type", Value: []byte(log.EntityType)},
		},
	}

	done := make(chan error, 1)
	k.producer.Produce(ctx, record, func(_ *kgo.Record, err error) {
		done <- err
	})
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-done:
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "produce audit log")
		return fmt.Errorf("audit: produce: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Close releases the underlying client when this sink created it.
func (k *KafkaSink) Close() {
	if k.close != nil {
		k.close()
	}
}
