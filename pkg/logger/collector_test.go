package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) all() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestLogCollector_DeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "cryptochat.logs",
		Publisher:      pub,
	})

	fields := map[string]interface{}{"coin": "btc"}
	c.AddLog("error", "market data failed", fields, "/internal/usecase/chat.go:10")
	c.AddLog("error", "market data failed", fields, "/internal/usecase/chat.go:10")
	c.AddLog("error", "store failed", nil, "/internal/repository/portfolio_store.go:5")
	c.Close()

	logs := pub.all()
	require.Len(t, logs, 2)
	counts := map[string]int{}
	for _, l := range logs {
		counts[l.Message] = l.Count
	}
	assert.Equal(t, map[string]int{"market data failed": 2, "store failed": 1}, counts)
	assert.Equal(t, []string{"cryptochat.logs"}, pub.topics)
}

func TestLogCollector_FlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "logs",
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("error", "a", nil, "x:1")
	c.AddLog("error", "b", nil, "x:2")

	assert.Eventually(t, func() bool { return len(pub.all()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestLogger_ErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	l.Error("upstream failed", String("op", "search"), Error(errors.New("boom")))
	l.Warn("ignored by collector")
	l.RemoveCollector()

	logs := pub.all()
	require.Len(t, logs, 1)
	assert.Equal(t, "upstream failed", logs[0].Message)
	assert.Equal(t, "search", logs[0].Fields["op"])
	assert.Equal(t, "boom", logs[0].Fields["error"])
}
