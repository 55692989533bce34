package usecase

import (
	"context"
	"sync"
	"time"

	"CryptoChat/internal/domain/models"
)

type stubMarket struct {
	ids     map[string]string
	coins   map[string]models.CoinData
	history map[string][]models.PricePoint
	err     error
	histErr error
}

func newStubMarket() *stubMarket {
	return &stubMarket{
		ids: map[string]string{"btc": "bitcoin", "eth": "ethereum"},
		coins: map[string]models.CoinData{
			"bitcoin":  {ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", CurrentPrice: 40000, MarketCap: 8e11, MarketCapRank: 1, PriceChangePercentage24h: 2},
			"ethereum": {ID: "ethereum", Symbol: "ETH", Name: "Ethereum", CurrentPrice: 2500.25, MarketCap: 3e11, MarketCapRank: 2, PriceChangePercentage24h: -1},
		},
		history: map[string][]models.PricePoint{
			"bitcoin": {
				{Timestamp: 1_700_000_000_000, Price: 100},
				{Timestamp: 1_700_003_600_000, Price: 110},
				{Timestamp: 1_700_007_200_000, Price: 120},
			},
		},
	}
}

func (m *stubMarket) SearchCoin(_ context.Context, q string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	id, ok := m.ids[q]
	if !ok {
		return "", models.ErrCoinNotFound
	}
	return id, nil
}

func (m *stubMarket) GetCoinPrice(_ context.Context, id string) (*models.CoinData, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coins[id]
	if !ok {
		return nil, models.ErrCoinNotFound
	}
	return &c, nil
}

func (m *stubMarket) GetCoinHistory(_ context.Context, id string) ([]models.PricePoint, error) {
	if m.histErr != nil {
		return nil, m.histErr
	}
	return m.history[id], nil
}

func (m *stubMarket) GetTrendingCoins(context.Context) ([]models.TrendingCoin, error) {
	return nil, m.err
}

func (m *stubMarket) GetCoinsData(_ context.Context, ids []string) ([]models.CoinData, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.CoinData, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.coins[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *stubMarket) GetTopCoins(_ context.Context, limit int) ([]models.CoinData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []models.CoinData{m.coins["bitcoin"], m.coins["ethereum"]}[:limit], nil
}

type captureSink struct {
	mu     sync.Mutex
	events []*models.ChatEvent
}

func (s *captureSink) Submit(e *models.ChatEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return true
}

type countingMetrics struct {
	mu      sync.Mutex
	queries map[string]int
	sent    map[string]int
	errors  map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{queries: map[string]int{}, sent: map[string]int{}, errors: map[string]int{}}
}

func (m *countingMetrics) RecordQuery(intent string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries[intent]++
}

func (m *countingMetrics) RecordEventSent(backend, intent string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[backend+"/"+intent]++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)   {}

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}
