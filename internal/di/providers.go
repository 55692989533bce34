package di

import (
	"context"
	"fmt"
	"time"

	"CryptoChat/internal/domain/repository"
	"CryptoChat/internal/handler/api"
	mid "CryptoChat/internal/middleware"
	internalrepo "CryptoChat/internal/repository"
	"CryptoChat/internal/service/coingecko"
	"CryptoChat/internal/service/ratelimit"
	"CryptoChat/internal/services/classifier"
	"CryptoChat/internal/services/responder"
	"CryptoChat/internal/usecase"
	"CryptoChat/pkg/cache"
	pkgch "CryptoChat/pkg/clickhouse"
	"CryptoChat/pkg/config"
	xhttp "CryptoChat/pkg/http"
	pkgkafka "CryptoChat/pkg/kafka"
	applogger "CryptoChat/pkg/logger"
	"CryptoChat/pkg/metrics"
	"CryptoChat/pkg/server"

	"github.com/segmentio/kafka-go"
)

const (
	marketL1TTL       = 30 * time.Second
	portfolioMaxItems = 100_000
	schemaTimeout     = 10 * time.Second
)

// Caches separates market data caching, which may be layered, from
// portfolio storage, which must not serve stale copies.
type Caches struct {
	Market    cache.Service
	Portfolio cache.Service
}

// ProvideKafkaProducer creates a Kafka producer when events or logs are
// shipped to Kafka. Otherwise it returns nil.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	needed := cfg.Events.Backend == config.EventsBackendKafka || cfg.Log.Collector.Enabled
	if !needed || len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger and attaches the Kafka log
// collector when enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if !cfg.Log.Collector.Enabled || producer == nil {
		return l, func() {}, nil
	}

	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Log.Collector.Interval,
		CountThreshold: cfg.Log.Collector.CountThreshold,
		Topic:          cfg.Log.Collector.Topic,
		Publisher:      producer,
	})
	l.Info("log collector enabled", applogger.String("topic", cfg.Log.Collector.Topic))
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideCaches builds the in-process caches, backed by Redis when enabled.
func ProvideCaches(cfg *config.Config) (*Caches, func(), error) {
	if !cfg.Redis.Enabled {
		market := cache.NewMemoryCache()
		portfolio := cache.NewMemoryCache(cache.WithMemoryMaxSize(portfolioMaxItems))
		return &Caches{Market: market, Portfolio: portfolio}, func() {
			_ = market.Close()
			_ = portfolio.Close()
		}, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	market := cache.NewLayeredCache(rc, marketL1TTL)

	caches := &Caches{Market: market, Portfolio: rc}
	if cfg.Portfolio.Store == config.StoreMemory {
		caches.Portfolio = cache.NewMemoryCache(cache.WithMemoryMaxSize(portfolioMaxItems))
	}
	return caches, func() {
		if mc, ok := caches.Portfolio.(*cache.MemoryCache); ok {
			_ = mc.Close()
		}
		_ = market.Close()
		_ = rc.Close()
	}, nil
}

// ProvideRateLimiter is shared by the market data client and the chat API;
// their bucket keys do not overlap.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideMarketData creates the CoinGecko client.
func ProvideMarketData(
	cfg *config.Config,
	caches *Caches,
	rl *ratelimit.Limiter,
	m repository.Metrics,
	l *applogger.Logger,
) repository.MarketData {
	ttl := cfg.CoinGecko.CacheTTL
	return coingecko.New(cfg.CoinGecko.BaseURL,
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithTimeout(cfg.CoinGecko.Timeout),
		coingecko.WithRetry(cfg.CoinGecko.RetryAttempts),
		coingecko.WithCache(caches.Market, coingecko.CacheTTL{
			Search:   ttl.Search,
			Price:    ttl.Price,
			History:  ttl.History,
			Trending: ttl.Trending,
			Markets:  ttl.Markets,
		}),
		coingecko.WithRateLimit(rl, cfg.CoinGecko.RateLimit.Capacity, cfg.CoinGecko.RateLimit.RefillPerSec),
		coingecko.WithMetrics(m),
		coingecko.WithLogger(l),
	)
}

func ProvideQueryParser() usecase.QueryParser {
	return classifier.New()
}

func ProvideResponseGenerator(market repository.MarketData, m repository.Metrics, l *applogger.Logger) usecase.ResponseGenerator {
	return responder.NewGenerator(market, responder.WithLogger(l), responder.WithMetrics(m))
}

func ProvidePortfolioStore(cfg *config.Config, caches *Caches) repository.PortfolioStore {
	return internalrepo.NewCachePortfolioStore(caches.Portfolio, cfg.Portfolio.KeyPrefix, cfg.Portfolio.TTL)
}

// ProvideClickHouseClient connects to ClickHouse and ensures the events
// table when events are stored there. Otherwise it returns nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	needed := cfg.Events.Backend == config.EventsBackendClickHouse || cfg.Events.Consume
	if !needed || cfg.ClickHouse.Host == "" {
		return nil, func() {}, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	storage := internalrepo.NewClickHouseEventStorage(client.DB(), "")
	if err := client.InitSchema(ctx, storage.Schema()); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideEventStorage(client *pkgch.Client) repository.EventStorage {
	if client == nil {
		return nil
	}
	return internalrepo.NewClickHouseEventStorage(client.DB(), "")
}

func ProvideEventStats(client *pkgch.Client, l *applogger.Logger) repository.EventStats {
	if client == nil {
		return nil
	}
	return internalrepo.NewClickHouseEventStats(client.DB(), "", l)
}

func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil || cfg.Events.Backend != config.EventsBackendKafka {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideEventPipeline batches chat events towards the configured backend.
// It returns nil when events are not recorded.
func ProvideEventPipeline(
	cfg *config.Config,
	pub repository.EventPublisher,
	store repository.EventStorage,
	m repository.Metrics,
	l *applogger.Logger,
) (*mid.EventPipeline, error) {
	if cfg.Events.Backend == config.EventsBackendNone {
		return nil, nil
	}
	rec, err := usecase.NewEventRecorder(pub, store, m, cfg.Events.Backend)
	if err != nil {
		return nil, err
	}
	return mid.NewEventPipeline(rec, m,
		mid.WithBufferSize(cfg.Events.BufferSize),
		mid.WithBatch(cfg.Events.BatchSize, cfg.Events.BatchTimeout),
		mid.WithLogger(l.With(applogger.String("component", "event_pipeline"))),
	), nil
}

func ProvideChatUseCase(
	parser usecase.QueryParser,
	gen usecase.ResponseGenerator,
	market repository.MarketData,
	store repository.PortfolioStore,
	pipeline *mid.EventPipeline,
	stats repository.EventStats,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ChatUseCase {
	opts := []usecase.ChatOption{
		usecase.WithChatMetrics(m),
		usecase.WithChatLogger(l),
	}
	if pipeline != nil {
		opts = append(opts, usecase.WithEventSink(pipeline))
	}
	if stats != nil {
		opts = append(opts, usecase.WithEventStats(stats))
	}
	return usecase.NewChatUseCase(parser, gen, market, store, opts...)
}

// ProvideKafkaConsumer moves chat events from Kafka into ClickHouse when
// events.consume is set. Otherwise it returns nil.
func ProvideKafkaConsumer(
	cfg *config.Config,
	store repository.EventStorage,
	m repository.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Events.Consume {
		return nil, nil
	}
	if store == nil {
		return nil, fmt.Errorf("kafka consumer: events storage is not configured")
	}

	log := l.With(applogger.String("component", "kafka_consumer"))
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	consumer.RegisterHandler(usecase.NewKafkaEventsHandler(cfg.Kafka.Topic, store, m))
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, km kafka.Message, _ []byte, err error) {
			m.RecordError("consumer_handle")
			log.Debug("chat event handling failed",
				applogger.String("topic", topic),
				applogger.Int("partition", km.Partition),
				applogger.Int64("offset", km.Offset),
				applogger.Error(err),
			)
		},
	}))
	return consumer, nil
}

// ProvideHTTPServer registers the REST and websocket chat handlers.
func ProvideHTTPServer(
	cfg *config.Config,
	chat *usecase.ChatUseCase,
	rl *ratelimit.Limiter,
	l *applogger.Logger,
) *xhttp.Server {
	handlers := []xhttp.Handler{
		api.NewChatEchoHandler(chat,
			api.WithLimiter(rl),
			api.WithRateLimit(cfg.Chat.RateLimit.Capacity, cfg.Chat.RateLimit.RefillPerSec),
			api.WithMaxMessageLength(cfg.Chat.MaxMessageLength),
			api.WithHandlerLogger(l),
		),
		api.NewChatSocketHandler(chat, l, cfg.Server.AllowOrigins...),
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if len(cfg.Server.AllowOrigins) > 0 {
		opts = append(opts, xhttp.WithCORS(cfg.Server.AllowOrigins...))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path))
	}
	return xhttp.NewServer(handlers, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	pipeline *mid.EventPipeline,
	consumer *pkgkafka.Consumer,
	rl *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, srv, pipeline, consumer, rl)
}
