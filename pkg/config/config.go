package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const (
	EventsBackendNone       = "none"
	EventsBackendKafka      = "kafka"
	EventsBackendClickHouse = "clickhouse"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		AllowOrigins    []string      `yaml:"allow_origins"`
	} `yaml:"server"`
	Log struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"cryptochat.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	CoinGecko struct {
		BaseURL       string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
		APIKey        string        `yaml:"api_key"`
		Timeout       time.Duration `yaml:"timeout" default:"10s"`
		RetryAttempts int           `yaml:"retry_attempts" default:"2"`
		CacheTTL      struct {
			Search   time.Duration `yaml:"search" default:"1h"`
			Price    time.Duration `yaml:"price" default:"30s"`
			History  time.Duration `yaml:"history" default:"5m"`
			Trending time.Duration `yaml:"trending" default:"5m"`
			Markets  time.Duration `yaml:"markets" default:"1m"`
		} `yaml:"cache_ttl"`
		RateLimit struct {
			Capacity     float64 `yaml:"capacity" default:"10"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5"`
		} `yaml:"rate_limit"`
	} `yaml:"coingecko"`
	Chat struct {
		MaxMessageLength int `yaml:"max_message_length" default:"500"`
		RateLimit        struct {
			Capacity     float64 `yaml:"capacity" default:"20"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
		} `yaml:"rate_limit"`
	} `yaml:"chat"`
	Portfolio struct {
		Store     string        `yaml:"store" default:"memory"`
		KeyPrefix string        `yaml:"key_prefix" default:"portfolio"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"portfolio"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"cryptochat"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
	Events struct {
		Backend      string        `yaml:"backend" default:"none"`
		BufferSize   int           `yaml:"buffer_size" default:"1024"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"2s"`
		Consume      bool          `yaml:"consume"`
	} `yaml:"events"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"cryptochat.events"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"cryptochat-events"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"cryptochat"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML, fills defaults and validates.
func Parse(data []byte) (*Config, error) {
	c, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(b)
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := getenv("COINGECKO_BASE_URL"); v != "" {
		c.CoinGecko.BaseURL = v
	}
	if v := getenv("EVENTS_BACKEND"); v != "" {
		c.Events.Backend = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Redis.Enabled = true
		c.Redis.Host = host
		if p, err := strconv.Atoi(port); found && err == nil {
			c.Redis.Port = p
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko.base_url is required")
	}
	if c.CoinGecko.RateLimit.Capacity <= 0 || c.CoinGecko.RateLimit.RefillPerSec <= 0 {
		return fmt.Errorf("coingecko.rate_limit must be positive")
	}

	switch c.Portfolio.Store {
	case StoreMemory:
	case StoreRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("portfolio.store 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("portfolio.store must be 'memory' or 'redis', got '%s'", c.Portfolio.Store)
	}

	switch c.Events.Backend {
	case EventsBackendNone:
	case EventsBackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when events.backend is 'kafka'")
		}
	case EventsBackendClickHouse:
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when events.backend is 'clickhouse'")
		}
	default:
		return fmt.Errorf("events.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Events.Backend)
	}

	if c.Events.Consume && (len(c.Kafka.Brokers) == 0 || c.ClickHouse.Host == "") {
		return fmt.Errorf("events.consume requires kafka.brokers and clickhouse.host")
	}
	if c.Log.Collector.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("log.collector requires kafka.brokers")
	}
	return nil
}
