package responder

import (
	"context"
	"sync"

	"CryptoChat/internal/domain/models"
)

type fakeMarket struct {
	ids      map[string]string
	coins    map[string]*models.CoinData
	trending []models.TrendingCoin
	err      error

	mu    sync.Mutex
	calls []string
}

func (f *fakeMarket) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeMarket) SearchCoin(_ context.Context, query string) (string, error) {
	f.record("search:" + query)
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.ids[query]
	if !ok {
		return "", models.ErrCoinNotFound
	}
	return id, nil
}

func (f *fakeMarket) GetCoinPrice(_ context.Context, id string) (*models.CoinData, error) {
	f.record("price:" + id)
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.coins[id]
	if !ok {
		return nil, models.ErrCoinNotFound
	}
	return c, nil
}

func (f *fakeMarket) GetCoinHistory(_ context.Context, id string) ([]models.PricePoint, error) {
	f.record("history:" + id)
	return nil, f.err
}

func (f *fakeMarket) GetTrendingCoins(context.Context) ([]models.TrendingCoin, error) {
	f.record("trending")
	if f.err != nil {
		return nil, f.err
	}
	return f.trending, nil
}

func (f *fakeMarket) GetCoinsData(context.Context, []string) ([]models.CoinData, error) {
	return nil, f.err
}

func (f *fakeMarket) GetTopCoins(context.Context, int) ([]models.CoinData, error) {
	return nil, f.err
}

func bitcoinMarket() *fakeMarket {
	return &fakeMarket{
		ids: map[string]string{"btc": "bitcoin"},
		coins: map[string]*models.CoinData{
			"bitcoin": {
				ID:                       "bitcoin",
				Symbol:                   "BTC",
				Name:                     "Bitcoin",
				CurrentPrice:             43250.5,
				MarketCap:                850e9,
				MarketCapRank:            1,
				PriceChangePercentage24h: 2.3456,
				Description:              "Bitcoin is the first decentralized cryptocurrency.",
			},
		},
	}
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordQuery(string, float64)     {}
func (m *countingMetrics) RecordEventSent(string, string)  {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)   {}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}
