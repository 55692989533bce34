package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships aggregated log batches, e.g. to a Kafka topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // unique entries that trigger an early flush
	Topic          string
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates error logs and publishes them in batches.
type LogCollector struct {
	config *CollectionConfig
	logMap map[string]*AggregatedLogEntry
	mutex  sync.Mutex
	flush  chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &LogCollector{
		config: config,
		logMap: make(map[string]*AggregatedLogEntry),
		flush:  make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}

	c.wg.Add(1)
	go c.run()

	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mutex.Lock()
	if entry, exists := c.logMap[key]; exists {
		entry.Count++
		entry.LastSeen = now
	} else {
		c.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	full := len(c.logMap) >= c.config.CountThreshold
	c.mutex.Unlock()

	if full {
		select {
		case c.flush <- struct{}{}:
		default:
		}
	}
}

func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{level, message, fields, caller}

	jsonData, _ := json.Marshal(data)
	return fmt.Sprintf("%x", sha256.Sum256(jsonData))
}

func (c *LogCollector) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.publish()
		case <-c.flush:
			c.publish()
		case <-c.ctx.Done():
			c.publish()
			return
		}
	}
}

// drain takes the pending entries, oldest first.
func (c *LogCollector) drain() []AggregatedLogEntry {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.logMap) == 0 {
		return nil
	}
	logs := make([]AggregatedLogEntry, 0, len(c.logMap))
	for _, entry := range c.logMap {
		logs = append(logs, *entry)
	}
	c.logMap = make(map[string]*AggregatedLogEntry)

	sort.Slice(logs, func(i, j int) bool { return logs[i].FirstSeen.Before(logs[j].FirstSeen) })
	return logs
}

func (c *LogCollector) publish() {
	logs := c.drain()
	if len(logs) == 0 || c.config.Publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, logs); err != nil {
		// the logger itself is what failed to ship, report out of band
		fmt.Fprintf(os.Stderr, "failed to send aggregated logs: %v\n", err)
	}
}

// Close flushes pending entries and stops the collector.
func (c *LogCollector) Close() {
	c.cancel()
	c.wg.Wait()
}
