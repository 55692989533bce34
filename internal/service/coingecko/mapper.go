package coingecko

import (
	"strings"

	"CryptoChat/internal/domain/models"
)

const vsCurrency = "usd"

func toCoinDataFromDetail(r *coinDetailResponse) *models.CoinData {
	return &models.CoinData{
		ID:                       r.ID,
		Symbol:                   strings.ToUpper(r.Symbol),
		Name:                     r.Name,
		CurrentPrice:             r.MarketData.CurrentPrice[vsCurrency],
		MarketCap:                r.MarketData.MarketCap[vsCurrency],
		MarketCapRank:            intOrZero(r.MarketCapRank),
		PriceChangePercentage24h: floatOrZero(r.MarketData.PriceChangePercentage24h),
		Image:                    r.Image.Large,
		Description:              strings.TrimSpace(r.Description.EN),
	}
}

func toCoinData(m marketCoin) models.CoinData {
	return models.CoinData{
		ID:                       m.ID,
		Symbol:                   strings.ToUpper(m.Symbol),
		Name:                     m.Name,
		CurrentPrice:             floatOrZero(m.CurrentPrice),
		MarketCap:                floatOrZero(m.MarketCap),
		MarketCapRank:            intOrZero(m.MarketCapRank),
		PriceChangePercentage24h: floatOrZero(m.PriceChangePercentage24h),
		Image:                    m.Image,
	}
}

func toCoinDataList(in []marketCoin) []models.CoinData {
	out := make([]models.CoinData, len(in))
	for i, m := range in {
		out[i] = toCoinData(m)
	}
	return out
}

func toTrendingCoins(r *trendingResponse) []models.TrendingCoin {
	out := make([]models.TrendingCoin, len(r.Coins))
	for i, c := range r.Coins {
		out[i] = models.TrendingCoin{
			ID:            c.Item.ID,
			Name:          c.Item.Name,
			Symbol:        c.Item.Symbol,
			MarketCapRank: intOrZero(c.Item.MarketCapRank),
			Thumb:         c.Item.Thumb,
			Large:         c.Item.Large,
			PriceBTC:      c.Item.PriceBTC,
		}
	}
	return out
}

func toPricePoints(r *marketChartResponse) []models.PricePoint {
	out := make([]models.PricePoint, len(r.Prices))
	for i, p := range r.Prices {
		out[i] = models.PricePoint{Timestamp: int64(p[0]), Price: p[1]}
	}
	return out
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
