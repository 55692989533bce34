package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	topic   string
	failFor int
	calls   int
	got     [][]byte
}

func (h *recordingHandler) Topic() string { return h.topic }

func (h *recordingHandler) Handle(_ context.Context, b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failFor {
		return errors.New("downstream unavailable")
	}
	h.got = append(h.got, b)
	return nil
}

func newTestConsumer(t *testing.T, opts ...ConsumerOption) *Consumer {
	t.Helper()
	opts = append([]ConsumerOption{
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRegisterer(prometheus.NewRegistry()),
		WithConsumerRetry(3, time.Millisecond, 2*time.Millisecond),
	}, opts...)
	c, err := NewConsumer(opts...)
	require.NoError(t, err)
	return c
}

// drive runs one worker over msgs without any reader attached.
func drive(c *Consumer, msgs ...*message) {
	for _, m := range msgs {
		c.msgChan <- m
	}
	close(c.msgChan)
	c.wg.Add(1)
	c.messageWorker()
}

func TestNewConsumer_RequiresBrokers(t *testing.T) {
	_, err := NewConsumer(WithConsumerRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestConsumer_RetriesUntilHandled(t *testing.T) {
	c := newTestConsumer(t, WithConsumerBufferSize(4))
	h := &recordingHandler{topic: "chat.events", failFor: 2}
	c.RegisterHandler(h)

	drive(c, &message{topic: "chat.events", km: kafka.Message{Value: []byte(`{"intent":"price"}`)}})

	assert.Equal(t, 3, h.calls)
	assert.Equal(t, [][]byte{[]byte(`{"intent":"price"}`)}, h.got)
}

func TestConsumer_GivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t)
	h := &recordingHandler{topic: "chat.events", failFor: 100}
	c.RegisterHandler(h)

	var errs int
	c.WithConsumerHook(HookFuncs{
		Err: func(context.Context, string, kafka.Message, []byte, error) { errs++ },
	})

	drive(c, &message{topic: "chat.events", km: kafka.Message{Value: []byte("x")}})

	assert.Equal(t, 4, h.calls)
	assert.Equal(t, 3, errs)
}

func TestConsumer_IgnoresDuplicateHandler(t *testing.T) {
	c := newTestConsumer(t)
	first := &recordingHandler{topic: "t"}
	c.RegisterHandler(first)
	c.RegisterHandler(&recordingHandler{topic: "t"})

	drive(c, &message{topic: "t", km: kafka.Message{Value: []byte("a")}})

	assert.Equal(t, 1, first.calls)
}

func TestConsumer_BeforeHookRewritesPayload(t *testing.T) {
	c := newTestConsumer(t)
	h := &recordingHandler{topic: "t"}
	c.RegisterHandler(h)
	c.WithConsumerHook(NewHookChain(
		HookFuncs{Before: func(ctx context.Context, _ string, _ kafka.Message, data []byte) (context.Context, []byte, error) {
			return ctx, append([]byte("1:"), data...), nil
		}},
		nil,
		HookFuncs{Before: func(ctx context.Context, _ string, _ kafka.Message, data []byte) (context.Context, []byte, error) {
			return ctx, append([]byte("2:"), data...), nil
		}},
	))

	drive(c, &message{topic: "t", km: kafka.Message{Value: []byte("a")}})

	assert.Equal(t, [][]byte{[]byte("2:1:a")}, h.got)
}

func TestHookChain_RecoversPanics(t *testing.T) {
	var after []string
	chain := NewHookChain(
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { after = append(after, "first") }},
		HookFuncs{
			Before: func(context.Context, string, kafka.Message, []byte) (context.Context, []byte, error) { panic("boom") },
			After:  func(context.Context, string, kafka.Message, []byte, error) { panic("boom") },
		},
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { after = append(after, "third") }},
	)

	_, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "ERR_PANIC", hookErr.Code)

	assert.NotPanics(t, func() {
		chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	})
	assert.Equal(t, []string{"third", "first"}, after)
}

func TestBackoffWithJitter(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, max)
	}
	d := backoffWithJitter(min, max, 1)
	assert.GreaterOrEqual(t, d, min/2)
	assert.LessOrEqual(t, d, min)
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encodeValue(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))

	_, err = encodeValue(make(chan int))
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Gzip, parseCompression("gzip"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Snappy, parseCompression("unknown"))
}
