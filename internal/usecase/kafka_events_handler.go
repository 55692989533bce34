package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CryptoChat/internal/domain/models"
	drepo "CryptoChat/internal/domain/repository"
	pkgkafka "CryptoChat/pkg/kafka"
)

// KafkaEventsHandler consumes chat events from Kafka into storage.
type KafkaEventsHandler struct {
	topic   string
	storage drepo.EventStorage
	metrics drepo.Metrics
}

func NewKafkaEventsHandler(topic string, storage drepo.EventStorage, metrics drepo.Metrics) *KafkaEventsHandler {
	return &KafkaEventsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaEventsHandler) Topic() string { return h.topic }

// Handle stores one JSON encoded models.ChatEvent. Malformed payloads are
// reported as errors so the consumer can park them in its DLQ.
func (h *KafkaEventsHandler) Handle(ctx context.Context, b []byte) error {
	var e models.ChatEvent
	if err := json.Unmarshal(b, &e); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode chat event: %w", err)
	}
	if e.EventID == "" || e.Intent == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("chat event missing id or intent")
	}
	if !e.Timestamp.IsZero() {
		h.metrics.RecordLatency("events_e2e", time.Since(e.Timestamp).Seconds())
	}

	start := time.Now()
	err := h.storage.Store(ctx, &e)
	h.metrics.RecordLatency("events_store", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordEventSent("clickhouse", string(e.Intent))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaEventsHandler)(nil)
