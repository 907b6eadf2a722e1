package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes audit events to a Kafka topic for downstream compliance
// consumers. Events are keyed by subject so one parent's trail stays ordered
// within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// kafkaEvent is the JSON wire shape. Field names are part of the consumer
// contract; do not rename without versioning the topic.
type kafkaEvent struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	SubjectID   string `json:"subject_id"`
	Action      string `json:"action"`
	ConsentType string `json:"consent_type"`
	Version     string `json:"version"`
	Feature     string `json:"feature,omitempty"`
	Platform    string `json:"platform,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// NewKafkaSink connects to the brokers and ensures the topic exists before
// the first produce.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 3, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	// An existing topic is fine; anything else is a real failure.
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", resp.Err)
	}

	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(kafkaEvent{
		ID:          event.ID,
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		SubjectID:   event.SubjectID,
		Action:      event.Action,
		ConsentType: event.ConsentType,
		Version:     event.Version,
		Feature:     event.Feature,
		Platform:    event.Platform,
		RequestID:   event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.SubjectID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
