package api

import (
	"context"
	"testing"
	"time"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/repository"
	"CryptoChat/internal/services/classifier"
	"CryptoChat/internal/services/responder"
	"CryptoChat/internal/usecase"
	"CryptoChat/pkg/cache"
)

type fakeMarket struct {
	err error
}

var fakeCoins = map[string]models.CoinData{
	"bitcoin":  {ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", CurrentPrice: 40000, MarketCap: 8e11, MarketCapRank: 1, PriceChangePercentage24h: 2},
	"ethereum": {ID: "ethereum", Symbol: "ETH", Name: "Ethereum", CurrentPrice: 2500, MarketCap: 3e11, MarketCapRank: 2, PriceChangePercentage24h: -1},
}

func (m *fakeMarket) SearchCoin(_ context.Context, q string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	switch q {
	case "btc", "bitcoin":
		return "bitcoin", nil
	case "eth", "ethereum":
		return "ethereum", nil
	}
	return "", models.ErrCoinNotFound
}

func (m *fakeMarket) GetCoinPrice(_ context.Context, id string) (*models.CoinData, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := fakeCoins[id]
	if !ok {
		return nil, models.ErrCoinNotFound
	}
	return &c, nil
}

func (m *fakeMarket) GetCoinHistory(context.Context, string) ([]models.PricePoint, error) {
	return []models.PricePoint{{Timestamp: 1, Price: 1}, {Timestamp: 2, Price: 2}}, m.err
}

func (m *fakeMarket) GetTrendingCoins(context.Context) ([]models.TrendingCoin, error) {
	return nil, m.err
}

func (m *fakeMarket) GetCoinsData(_ context.Context, ids []string) ([]models.CoinData, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.CoinData
	for _, id := range ids {
		if c, ok := fakeCoins[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *fakeMarket) GetTopCoins(_ context.Context, limit int) ([]models.CoinData, error) {
	if m.err != nil {
		return nil, m.err
	}
	all := []models.CoinData{fakeCoins["bitcoin"], fakeCoins["ethereum"]}
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

type fakeStats struct {
	from, to time.Time
}

func (s *fakeStats) IntentCounts(_ context.Context, from, to time.Time) ([]models.IntentCount, error) {
	s.from, s.to = from, to
	return []models.IntentCount{{Intent: models.IntentPrice, Count: 3, AvgConfidence: 0.9}}, nil
}

func newTestChat(t *testing.T, market *fakeMarket, opts ...usecase.ChatOption) *usecase.ChatUseCase {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	return usecase.NewChatUseCase(
		classifier.New(),
		responder.NewGenerator(market),
		market,
		repository.NewCachePortfolioStore(mem, "portfolio", 0),
		opts...,
	)
}
