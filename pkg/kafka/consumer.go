package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	applogger "CryptoChat/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *applogger.Logger
	Registerer  prometheus.Registerer
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry sets how many times a failed message is retried and
// the backoff range between attempts.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sends messages that exhausted their retries to topic.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithConsumerRegisterer registers consumer metrics on reg instead of the
// default registry.
func WithConsumerRegisterer(reg prometheus.Registerer) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Registerer = reg
	}
}

// Consumer reads registered topics and fans messages out to a worker pool.
// Messages of one partition are handled one at a time.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *applogger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	msgChan  chan *message
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	dlq      *kafka.Writer
	hook     ConsumerHook
	metrics  *consumerMetrics

	locksMu   sync.Mutex
	partLocks map[string]*sync.Mutex
}

type message struct {
	topic string
	km    kafka.Message
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
		Logger:      applogger.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:       cfg,
		log:       cfg.Logger,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		msgChan:   make(chan *message, cfg.BufferSize),
		stopChan:  make(chan struct{}),
		hook:      NoopHook{},
		metrics:   consumerMetricsFor(cfg.Registerer),
		partLocks: make(map[string]*sync.Mutex),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

// RegisterHandler must be called before Start. A second handler for the
// same topic is ignored.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka consumer: handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook replaces the lifecycle hook.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start launches one reader per registered topic and the worker pool.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.messageWorker()
	}

	var readers sync.WaitGroup
	for topic, reader := range c.readers {
		readers.Add(1)
		go func(topic string, reader *kafka.Reader) {
			defer readers.Done()
			c.consumeMessages(topic, reader)
		}(topic, reader)
	}
	// workers exit once every reader has stopped feeding them
	go func() {
		readers.Wait()
		close(c.msgChan)
	}()

	c.log.Info("kafka consumer started",
		applogger.String("group", c.cfg.GroupID),
		applogger.Int("topics", len(c.readers)),
		applogger.Int("workers", c.cfg.WorkerCount),
	)
	return nil
}

// Stop signals readers to stop and waits for in-flight messages.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stopChan)
		stopErr = c.waitForWorkers(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Warn("kafka consumer: close reader", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("kafka consumer: close dlq writer", applogger.Error(err))
			}
		}
		if stopErr == nil {
			c.log.Info("kafka consumer stopped")
		}
	})
	return stopErr
}

func (c *Consumer) waitForWorkers(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader *kafka.Reader) {
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		km, err := reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log.Warn("kafka consumer: fetch", applogger.String("topic", topic), applogger.Error(err))
			}
			continue
		}

		select {
		case c.msgChan <- &message{topic: topic, km: km}:
			c.metrics.queueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) messageWorker() {
	defer c.wg.Done()
	for msg := range c.msgChan {
		handler, ok := c.handlers[msg.topic]
		if !ok {
			continue
		}
		c.handle(handler, msg)
	}
}

func (c *Consumer) handle(handler MessageHandler, msg *message) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("kafka consumer: handler panic", applogger.String("topic", msg.topic), applogger.Any("panic", r))
		}
		c.metrics.handleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
	}()

	pl := c.partitionLock(msg.topic, msg.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	var err error
	attempts := 0
	for {
		attempts++
		hctx, data, berr := c.hook.BeforeHandle(context.Background(), msg.topic, msg.km, msg.km.Value)
		if berr != nil {
			err = berr
		} else {
			err = handler.Handle(hctx, data)
			c.hook.AfterHandle(hctx, msg.topic, msg.km, data, err)
		}
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}
		c.hook.OnError(hctx, msg.topic, msg.km, data, err)
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			return
		}
	}

	if err != nil {
		c.metrics.failed.WithLabelValues(msg.topic).Inc()
		c.log.Error("kafka consumer: message failed",
			applogger.String("topic", msg.topic),
			applogger.Int("partition", msg.km.Partition),
			applogger.Int64("offset", msg.km.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		if !c.sendToDLQ(msg) {
			return
		}
	}

	// committed after success or after parking the message in the DLQ
	if reader := c.readers[msg.topic]; reader != nil {
		_ = c.commitWithRetry(reader, msg.km, 3)
	}
}

func (c *Consumer) sendToDLQ(msg *message) bool {
	if c.dlq == nil {
		return false
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     msg.km.Key,
		Value:   msg.km.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.topic)}},
	})
	if err != nil {
		c.log.Error("kafka consumer: dlq write", applogger.String("dlq_topic", c.cfg.DLQTopic), applogger.Error(err))
		return false
	}
	return true
}

func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka consumer: commit", applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", topic, partition)
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.partLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.partLocks[key] = l
	}
	return l
}

// backoffWithJitter doubles min per attempt up to max and subtracts up to
// half of it at random.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := max
	if attempt < 32 {
		if d := min << uint(attempt-1); d > 0 && d < max {
			exp = d
		}
	}
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

type consumerMetrics struct {
	queueDepth    *prometheus.GaugeVec
	handleLatency *prometheus.HistogramVec
	failed        *prometheus.CounterVec
}

var (
	defaultConsumerMetricsOnce sync.Once
	defaultConsumerMetrics     *consumerMetrics
)

func newConsumerMetrics() *consumerMetrics {
	return &consumerMetrics{
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "cryptochat_kafka_consumer_queue_depth", Help: "Messages waiting for a worker"},
			[]string{"topic"},
		),
		handleLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "cryptochat_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cryptochat_kafka_consumer_failed_total", Help: "Messages that exhausted their retries"},
			[]string{"topic"},
		),
	}
}

func (m *consumerMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.queueDepth, m.handleLatency, m.failed}
}

// consumerMetricsFor registers a fresh set on reg, or the shared set on the
// default registry when reg is nil.
func consumerMetricsFor(reg prometheus.Registerer) *consumerMetrics {
	if reg != nil {
		m := newConsumerMetrics()
		reg.MustRegister(m.collectors()...)
		return m
	}
	defaultConsumerMetricsOnce.Do(func() {
		defaultConsumerMetrics = newConsumerMetrics()
		prometheus.MustRegister(defaultConsumerMetrics.collectors()...)
	})
	return defaultConsumerMetrics
}
