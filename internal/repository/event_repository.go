package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"CryptoChat/internal/domain/models"
	domrepo "CryptoChat/internal/domain/repository"
	pkgkafka "CryptoChat/pkg/kafka"
)

const insertChunkSize = 2000

const eventColumns = "event_id, session_id, ts, message, intent, confidence, coin_symbol, amount, action, reply_type, latency_ms"

// ClickHouseEventStorage appends chat events to a MergeTree table.
type ClickHouseEventStorage struct {
	db    *sql.DB
	table string
}

func NewClickHouseEventStorage(db *sql.DB, table string) *ClickHouseEventStorage {
	if table == "" {
		table = "chat_events"
	}
	return &ClickHouseEventStorage{db: db, table: table}
}

var _ domrepo.EventStorage = (*ClickHouseEventStorage)(nil)

// Schema returns the DDL for the events table. Redelivered events share an
// event_id and collapse on merge.
func (s *ClickHouseEventStorage) Schema() []string {
	return []string{fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			event_id    String,
			session_id  String,
			ts          DateTime64(3),
			message     String,
			intent      LowCardinality(String),
			confidence  Float64,
			coin_symbol LowCardinality(String),
			amount      Float64,
			action      LowCardinality(String),
			reply_type  LowCardinality(String),
			latency_ms  UInt32
		)
		ENGINE = ReplacingMergeTree
		PARTITION BY toYYYYMM(ts)
		ORDER BY (intent, ts, event_id)`, s.table)}
}

func (s *ClickHouseEventStorage) Init(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *ClickHouseEventStorage) Store(ctx context.Context, e *models.ChatEvent) error {
	return s.StoreBatch(ctx, []*models.ChatEvent{e})
}

// StoreBatch inserts events with multi-row VALUES statements. Events without
// an id are skipped.
func (s *ClickHouseEventStorage) StoreBatch(ctx context.Context, events []*models.ChatEvent) error {
	for start := 0; start < len(events); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*11)
		for _, e := range events[start:end] {
			if e == nil || e.EventID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				e.EventID,
				e.SessionID,
				e.Timestamp.UTC(),
				e.Message,
				string(e.Intent),
				e.Confidence,
				e.CoinSymbol,
				e.Amount,
				string(e.Action),
				string(e.ReplyType),
				uint32(e.LatencyMs),
			)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, eventColumns, strings.Join(values, ", "))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert chat events: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseEventStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseEventStorage) Close() error {
	return nil
}

type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher writes chat events as JSON keyed by session id.
type KafkaEventPublisher struct {
	producer eventProducer
	topic    string
}

func NewKafkaEventPublisher(producer eventProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func (p *KafkaEventPublisher) Publish(ctx context.Context, e *models.ChatEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.SessionID), e)
}

func (p *KafkaEventPublisher) PublishBatch(ctx context.Context, events []*models.ChatEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(e.SessionID), Value: e})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
