package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "https://api.coingecko.com/api/v3", c.CoinGecko.BaseURL)
	assert.Equal(t, 10*time.Second, c.CoinGecko.Timeout)
	assert.Equal(t, time.Hour, c.CoinGecko.CacheTTL.Search)
	assert.Equal(t, StoreMemory, c.Portfolio.Store)
	assert.Equal(t, EventsBackendNone, c.Events.Backend)
	assert.Equal(t, "cryptochat.events", c.Kafka.Topic)
}

func TestParse_KeepsExplicitValues(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
coingecko:
  timeout: 3s
events:
  backend: kafka
kafka:
  brokers: ["k1:9092", "k2:9092"]
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 3*time.Second, c.CoinGecko.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown events backend",
			yaml:    "events:\n  backend: s3\n",
			wantErr: "events.backend",
		},
		{
			name:    "kafka without brokers",
			yaml:    "events:\n  backend: kafka\n",
			wantErr: "kafka.brokers",
		},
		{
			name:    "clickhouse without host",
			yaml:    "events:\n  backend: clickhouse\n",
			wantErr: "clickhouse.host",
		},
		{
			name:    "redis store without redis",
			yaml:    "portfolio:\n  store: redis\n",
			wantErr: "redis.enabled",
		},
		{
			name:    "unknown store",
			yaml:    "portfolio:\n  store: disk\n",
			wantErr: "portfolio.store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	env := map[string]string{
		"COINGECKO_API_KEY": "demo-key",
		"EVENTS_BACKEND":    "kafka",
		"KAFKA_BROKERS":     "a:9092,b:9092",
		"REDIS_ADDR":        "cache:6380",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "demo-key", c.CoinGecko.APIKey)
	assert.Equal(t, EventsBackendKafka, c.Events.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "cache", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
	assert.NoError(t, c.Validate())
}

func TestLoad_SampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
	assert.True(t, c.Metrics.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
