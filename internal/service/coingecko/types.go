package coingecko

// Wire formats of the CoinGecko v3 API. Nullable numbers are pointers.

type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		MarketCapRank *int   `json:"market_cap_rank"`
	} `json:"coins"`
}

type coinDetailResponse struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Image         struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	Description struct {
		EN string `json:"en"`
	} `json:"description"`
	MarketData struct {
		CurrentPrice             map[string]float64 `json:"current_price"`
		MarketCap                map[string]float64 `json:"market_cap"`
		PriceChangePercentage24h *float64           `json:"price_change_percentage_24h"`
	} `json:"market_data"`
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

type trendingResponse struct {
	Coins []struct {
		Item struct {
			ID            string  `json:"id"`
			Name          string  `json:"name"`
			Symbol        string  `json:"symbol"`
			MarketCapRank *int    `json:"market_cap_rank"`
			Thumb         string  `json:"thumb"`
			Large         string  `json:"large"`
			PriceBTC      float64 `json:"price_btc"`
		} `json:"item"`
	} `json:"coins"`
}

type marketCoin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}
