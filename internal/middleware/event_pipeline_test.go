package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoChat/internal/domain/models"
)

type fakeProc struct {
	mu      sync.Mutex
	failFor int
	calls   int
	batches [][]*models.ChatEvent
}

func (f *fakeProc) ProcessBatch(_ context.Context, events []*models.ChatEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFor {
		return errors.New("broker down")
	}
	f.batches = append(f.batches, append([]*models.ChatEvent(nil), events...))
	return nil
}

func (f *fakeProc) delivered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type errorCounter struct {
	mu     sync.Mutex
	errors map[string]int
}

func newErrorCounter() *errorCounter { return &errorCounter{errors: map[string]int{}} }

func (m *errorCounter) RecordQuery(string, float64)     {}
func (m *errorCounter) RecordEventSent(string, string)  {}
func (m *errorCounter) RecordLastPrice(string, float64) {}
func (m *errorCounter) RecordLatency(string, float64)   {}
func (m *errorCounter) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *errorCounter) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func event(i int) *models.ChatEvent {
	return &models.ChatEvent{
		EventID:   fmt.Sprintf("e-%d", i),
		SessionID: "s",
		Intent:    models.IntentHelp,
		ReplyType: models.ReplyText,
		Timestamp: time.Unix(1_700_000_000+int64(i), 0),
	}
}

func TestEventPipeline_FlushesOnStop(t *testing.T) {
	proc := &fakeProc{}
	p := NewEventPipeline(proc, newErrorCounter(), WithBatch(3, time.Hour))
	p.Start(context.Background())

	for i := 0; i < 7; i++ {
		require.True(t, p.Submit(event(i)))
	}
	require.NoError(t, p.Stop(context.Background()))

	assert.Equal(t, 7, proc.delivered())
	for _, b := range proc.batches {
		assert.LessOrEqual(t, len(b), 3)
	}
	assert.Equal(t, "e-0", proc.batches[0][0].EventID)
}

func TestEventPipeline_FlushesOnInterval(t *testing.T) {
	proc := &fakeProc{}
	p := NewEventPipeline(proc, newErrorCounter(), WithBatch(100, 10*time.Millisecond))
	p.Start(context.Background())
	defer func() { _ = p.Stop(context.Background()) }()

	require.True(t, p.Submit(event(1)))
	assert.Eventually(t, func() bool { return proc.delivered() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEventPipeline_DropsWhenFull(t *testing.T) {
	m := newErrorCounter()
	p := NewEventPipeline(&fakeProc{}, m, WithBufferSize(2))

	assert.True(t, p.Submit(event(1)))
	assert.True(t, p.Submit(event(2)))
	assert.False(t, p.Submit(event(3)))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 1, m.count("pipeline_buffer_full"))
}

func TestEventPipeline_RejectsInvalid(t *testing.T) {
	m := newErrorCounter()
	p := NewEventPipeline(&fakeProc{}, m)

	assert.False(t, p.Submit(nil))
	assert.False(t, p.Submit(&models.ChatEvent{Intent: models.IntentHelp, Timestamp: time.Now()}))
	noIntent := event(1)
	noIntent.Intent = ""
	assert.False(t, p.Submit(noIntent))
	assert.Equal(t, 3, m.count("pipeline_validate"))
	assert.Equal(t, 0, p.Len())
}

func TestEventPipeline_RetriesFailedBatch(t *testing.T) {
	proc := &fakeProc{failFor: 2}
	m := newErrorCounter()
	p := NewEventPipeline(proc, m,
		WithBatch(1, 5*time.Millisecond),
		WithRetry(3, time.Millisecond, 2*time.Millisecond),
	)
	p.Start(context.Background())
	defer func() { _ = p.Stop(context.Background()) }()

	require.True(t, p.Submit(event(1)))
	assert.Eventually(t, func() bool { return proc.delivered() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, m.count("pipeline_flush"))
	assert.Equal(t, 0, m.count("pipeline_drop"))
}

func TestEventPipeline_DropsAfterRetries(t *testing.T) {
	proc := &fakeProc{failFor: 100}
	m := newErrorCounter()
	p := NewEventPipeline(proc, m,
		WithBatch(1, 5*time.Millisecond),
		WithRetry(2, time.Millisecond, time.Millisecond),
	)
	p.Start(context.Background())

	require.True(t, p.Submit(event(1)))
	assert.Eventually(t, func() bool { return m.count("pipeline_drop") == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, 3, m.count("pipeline_flush"))
}

func TestEventPipeline_StopIsIdempotent(t *testing.T) {
	p := NewEventPipeline(&fakeProc{}, newErrorCounter())
	require.NoError(t, p.Stop(context.Background()))
	p.Start(context.Background())
	p.Start(context.Background())
	require.NoError(t, p.Stop(context.Background()))
	require.NoError(t, p.Stop(context.Background()))
}
