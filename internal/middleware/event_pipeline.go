package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CryptoChat/internal/domain/models"
	domrepo "CryptoChat/internal/domain/repository"
	applogger "CryptoChat/pkg/logger"
)

// BatchProc is the downstream the pipeline flushes into.
type BatchProc interface {
	ProcessBatch(ctx context.Context, events []*models.ChatEvent) error
}

// EventPipeline decouples request handling from analytics delivery.
// Submit never blocks: events are buffered and flushed in batches by a
// background goroutine. When the buffer is full new events are dropped.
type EventPipeline struct {
	proc       BatchProc
	metrics    domrepo.Metrics
	log        *applogger.Logger
	bufCh      chan *models.ChatEvent
	batchSize  int
	interval   time.Duration
	maxRetries int
	backoffMin time.Duration
	backoffMax time.Duration

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

type PipelineOption func(*EventPipeline)

func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.ChatEvent, n)
		}
	}
}

// WithBatch sets the largest batch and how long a partial batch may wait.
func WithBatch(size int, interval time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithRetry sets how often a failed batch is retried before it is dropped.
func WithRetry(max int, backoffMin, backoffMax time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		p.maxRetries = max
		if backoffMin > 0 {
			p.backoffMin = backoffMin
		}
		if backoffMax >= p.backoffMin {
			p.backoffMax = backoffMax
		}
	}
}

func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *EventPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func NewEventPipeline(proc BatchProc, metrics domrepo.Metrics, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		proc:       proc,
		metrics:    metrics,
		log:        applogger.Nop(),
		bufCh:      make(chan *models.ChatEvent, 1024),
		batchSize:  100,
		interval:   2 * time.Second,
		maxRetries: 3,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the flusher. The context is passed to the downstream;
// cancelling it does not stop the pipeline, Stop does.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(ctx, p.stopCh, p.done)
}

// Stop flushes what is buffered and waits for the flusher, up to ctx.
func (p *EventPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	stopCh, done := p.stopCh, p.done
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event pipeline stop: %w", ctx.Err())
	}
}

// Submit validates e and enqueues it. It reports whether e was accepted.
func (p *EventPipeline) Submit(e *models.ChatEvent) bool {
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		p.log.Debug("event rejected", applogger.Error(err))
		return false
	}
	select {
	case p.bufCh <- e:
		return true
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return false
	}
}

// Len is the number of buffered events.
func (p *EventPipeline) Len() int {
	return len(p.bufCh)
}

func (p *EventPipeline) run(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	batch := make([]*models.ChatEvent, 0, p.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.deliver(ctx, stopCh, batch)
		batch = make([]*models.ChatEvent, 0, p.batchSize)
	}

	for {
		select {
		case e := <-p.bufCh:
			batch = append(batch, e)
			if len(batch) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-stopCh:
			for {
				select {
				case e := <-p.bufCh:
					batch = append(batch, e)
					if len(batch) >= p.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// deliver retries a failed batch with exponential backoff. Once stopping,
// a failed batch is tried once more at most.
func (p *EventPipeline) deliver(ctx context.Context, stopCh <-chan struct{}, batch []*models.ChatEvent) {
	start := time.Now()
	backoff := p.backoffMin
	for attempt := 0; ; attempt++ {
		err := p.proc.ProcessBatch(ctx, batch)
		if err == nil {
			p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_flush")
		if attempt >= p.maxRetries {
			p.metrics.RecordError("pipeline_drop")
			p.log.Warn("dropping chat events",
				applogger.Int("events", len(batch)),
				applogger.Int("attempts", attempt+1),
				applogger.Error(err),
			)
			return
		}
		select {
		case <-time.After(backoff):
		case <-stopCh:
			attempt = p.maxRetries - 1
		}
		if backoff *= 2; backoff > p.backoffMax {
			backoff = p.backoffMax
		}
	}
}

func validateEvent(e *models.ChatEvent) error {
	switch {
	case e == nil:
		return fmt.Errorf("event nil")
	case e.EventID == "":
		return fmt.Errorf("event id empty")
	case e.Intent == "":
		return fmt.Errorf("intent empty")
	case e.Timestamp.IsZero():
		return fmt.Errorf("timestamp missing")
	}
	return nil
}
