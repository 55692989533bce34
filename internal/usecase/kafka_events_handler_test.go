package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoChat/internal/domain/models"
)

func TestKafkaEventsHandler(t *testing.T) {
	storage := &memEvents{}
	metrics := newCountingMetrics()
	h := NewKafkaEventsHandler("cryptochat.events", storage, metrics)
	assert.Equal(t, "cryptochat.events", h.Topic())

	payload, err := json.Marshal(chatEvent("e-1", models.IntentTrending))
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), payload))

	require.Len(t, storage.stored, 1)
	assert.Equal(t, "e-1", storage.stored[0].EventID)
	assert.Equal(t, 1, metrics.sent["clickhouse/trending"])
}

func TestKafkaEventsHandler_RejectsBadPayloads(t *testing.T) {
	storage := &memEvents{}
	metrics := newCountingMetrics()
	h := NewKafkaEventsHandler("t", storage, metrics)

	assert.Error(t, h.Handle(context.Background(), []byte("{not json")))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"session_id":"s"}`)))
	assert.Empty(t, storage.stored)
	assert.Equal(t, 1, metrics.errors["consumer_unmarshal"])
	assert.Equal(t, 1, metrics.errors["consumer_invalid"])
}
