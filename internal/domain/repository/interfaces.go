package repository

import (
	"context"
	"time"

	"CryptoChat/internal/domain/models"
)

// MarketData is the market data provider used by response strategies.
// SearchCoin, GetCoinPrice and GetCoinHistory fail with models.ErrCoinNotFound
// or models.ErrRateLimited; list calls fail with models.ErrMarketData or
// models.ErrRateLimited.
type MarketData interface {
	SearchCoin(ctx context.Context, query string) (string, error)
	GetCoinPrice(ctx context.Context, coinID string) (*models.CoinData, error)
	GetCoinHistory(ctx context.Context, coinID string) ([]models.PricePoint, error)
	GetTrendingCoins(ctx context.Context) ([]models.TrendingCoin, error)
	GetCoinsData(ctx context.Context, coinIDs []string) ([]models.CoinData, error)
	GetTopCoins(ctx context.Context, limit int) ([]models.CoinData, error)
}

// PortfolioStore persists one portfolio per chat session.
// Load returns an empty portfolio for unknown sessions.
type PortfolioStore interface {
	Load(ctx context.Context, sessionID string) (models.Portfolio, error)
	Save(ctx context.Context, sessionID string, p models.Portfolio) error
	Clear(ctx context.Context, sessionID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e *models.ChatEvent) error
	PublishBatch(ctx context.Context, events []*models.ChatEvent) error
	Close() error
}

type EventStorage interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, e *models.ChatEvent) error
	StoreBatch(ctx context.Context, events []*models.ChatEvent) error
	Health(ctx context.Context) error
	Close() error
}

type EventStats interface {
	IntentCounts(ctx context.Context, from, to time.Time) ([]models.IntentCount, error)
}

type Metrics interface {
	RecordQuery(intent string, confidence float64)
	RecordEventSent(backend, intent string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
