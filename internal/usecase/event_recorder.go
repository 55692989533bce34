package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoChat/internal/domain/models"
	drepo "CryptoChat/internal/domain/repository"
	"CryptoChat/pkg/config"
)

// EventRecorder routes chat events to the configured analytics backend.
type EventRecorder struct {
	pub     drepo.EventPublisher
	store   drepo.EventStorage
	metrics drepo.Metrics
	backend string
}

// NewEventRecorder checks that the backend named by backend was supplied.
func NewEventRecorder(pub drepo.EventPublisher, store drepo.EventStorage, metrics drepo.Metrics, backend string) (*EventRecorder, error) {
	switch backend {
	case config.EventsBackendKafka:
		if pub == nil {
			return nil, fmt.Errorf("events backend %q needs a publisher", backend)
		}
	case config.EventsBackendClickHouse:
		if store == nil {
			return nil, fmt.Errorf("events backend %q needs a storage", backend)
		}
	default:
		return nil, fmt.Errorf("unknown events backend: %q", backend)
	}
	return &EventRecorder{pub: pub, store: store, metrics: metrics, backend: backend}, nil
}

func (r *EventRecorder) Backend() string { return r.backend }

// Process records a single event.
func (r *EventRecorder) Process(ctx context.Context, e *models.ChatEvent) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}
	return r.ProcessBatch(ctx, []*models.ChatEvent{e})
}

// ProcessBatch records events in one backend call.
func (r *EventRecorder) ProcessBatch(ctx context.Context, events []*models.ChatEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch r.backend {
	case config.EventsBackendKafka:
		err = r.pub.PublishBatch(ctx, events)
	case config.EventsBackendClickHouse:
		err = r.store.StoreBatch(ctx, events)
	}
	if err != nil {
		r.metrics.RecordError("events_" + r.backend)
		return fmt.Errorf("record %d events: %w", len(events), err)
	}

	for _, e := range events {
		if e != nil {
			r.metrics.RecordEventSent(r.backend, string(e.Intent))
		}
	}
	r.metrics.RecordLatency("events_batch", time.Since(start).Seconds())
	return nil
}

// Close releases the backend.
func (r *EventRecorder) Close() error {
	if r.pub != nil {
		if err := r.pub.Close(); err != nil {
			return err
		}
	}
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
