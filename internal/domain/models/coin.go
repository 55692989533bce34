package models

// CoinData is a market snapshot of a single coin.
type CoinData struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	Image                    string  `json:"image,omitempty"`
	Description              string  `json:"description,omitempty"`
}

// TrendingCoin is an entry of the trending list. MarketCapRank is 0 when unranked.
type TrendingCoin struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int     `json:"market_cap_rank"`
	Thumb         string  `json:"thumb,omitempty"`
	Large         string  `json:"large,omitempty"`
	PriceBTC      float64 `json:"price_btc"`
}

// PricePoint is one sample of a price series. Timestamp is in epoch milliseconds.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}
