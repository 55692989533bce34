package responder

import (
	"context"
	"fmt"
	"strings"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/domain/repository"
)

// Strategy produces the reply text for one intent.
type Strategy interface {
	Generate(ctx context.Context, q models.StructuredQuery, portfolio models.Portfolio) (string, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, q models.StructuredQuery, portfolio models.Portfolio) (string, error)

func (f StrategyFunc) Generate(ctx context.Context, q models.StructuredQuery, portfolio models.Portfolio) (string, error) {
	return f(ctx, q, portfolio)
}

const (
	trendingLimit  = 5
	descriptionCap = 200
)

const (
	msgPriceNoCoin = "I'd be happy to help you check a coin's price! Please specify which cryptocurrency you're interested in. For example: 'What's BTC trading at?'"
	msgChartNoCoin = "I can show you price charts! Please specify which coin you'd like to see, for example: 'Show me BTC chart' or 'ETH performance'."
	msgStatsNoCoin = "I can provide detailed stats for any cryptocurrency! Just tell me which coin you're interested in."

	msgPortfolioEmpty = "Your portfolio is empty. You can add holdings by saying something like 'I have 2 ETH' or 'I own 0.5 BTC'."
	msgPortfolioHint  = "I can help you track your crypto portfolio! Tell me what you own, like 'I have 2 ETH' or ask to 'show my portfolio'."

	msgNoDescription = "No description available."

	msgHelp = `🤖 I'm your crypto assistant! Here's what I can help you with:

💰 **Price Queries**: "What's BTC trading at?" or "ETH price"
🔥 **Trending Coins**: "Show me trending coins" or "What's popular today?"
📊 **Portfolio**: "I have 2 ETH" or "Show my portfolio"
📈 **Charts**: "Show BTC chart" or "ETH performance"
📋 **Stats**: "Tell me about Bitcoin" or "ETH stats"

Just ask me anything about crypto in natural language!`

	msgUnknown = "I'm not sure what you're asking about. Try asking about crypto prices, trending coins, your portfolio, or say 'help' to see what I can do!"
)

// PriceStrategy quotes the current price of a coin.
type PriceStrategy struct {
	market repository.MarketData
}

func NewPriceStrategy(market repository.MarketData) *PriceStrategy {
	return &PriceStrategy{market: market}
}

func (s *PriceStrategy) Generate(ctx context.Context, q models.StructuredQuery, _ models.Portfolio) (string, error) {
	if !q.HasCoin() {
		return msgPriceNoCoin, nil
	}

	data, err := lookupCoin(ctx, s.market, q.CoinSymbol)
	if err != nil {
		return "", err
	}

	direction := "📈"
	if data.PriceChangePercentage24h < 0 {
		direction = "📉"
	}

	return fmt.Sprintf("%s (%s) is currently trading at $%s %s\n\n24h change: %s%%\nMarket cap: $%sB\nRank: #%s",
		data.Name, data.Symbol, FormatPrice(data.CurrentPrice), direction,
		FormatPercent(data.PriceChangePercentage24h),
		FormatBillions(data.MarketCap),
		formatRank(data.MarketCapRank),
	), nil
}

// TrendingStrategy lists the top trending coins.
type TrendingStrategy struct {
	market repository.MarketData
}

func NewTrendingStrategy(market repository.MarketData) *TrendingStrategy {
	return &TrendingStrategy{market: market}
}

func (s *TrendingStrategy) Generate(ctx context.Context, _ models.StructuredQuery, _ models.Portfolio) (string, error) {
	coins, err := s.market.GetTrendingCoins(ctx)
	if err != nil {
		return "", err
	}
	if len(coins) > trendingLimit {
		coins = coins[:trendingLimit]
	}

	lines := make([]string, len(coins))
	for i, c := range coins {
		lines[i] = fmt.Sprintf("%d. %s (%s) - Rank #%s", i+1, c.Name, strings.ToUpper(c.Symbol), formatRank(c.MarketCapRank))
	}
	return "🔥 Today's trending cryptocurrencies:\n\n" + strings.Join(lines, "\n"), nil
}

// PortfolioStrategy shows holdings or confirms a new one. It never modifies
// the portfolio: recording a holding is the caller's job.
type PortfolioStrategy struct{}

func (PortfolioStrategy) Generate(_ context.Context, q models.StructuredQuery, portfolio models.Portfolio) (string, error) {
	switch {
	case q.Action == models.ActionShow:
		if portfolio.IsEmpty() {
			return msgPortfolioEmpty, nil
		}
		ids := portfolio.IDs()
		lines := make([]string, len(ids))
		for i, id := range ids {
			h := portfolio[id]
			lines[i] = fmt.Sprintf("%s %s (%s)", FormatAmount(h.Amount), h.Symbol, h.Name)
		}
		return "📊 Your current portfolio:\n\n" + strings.Join(lines, "\n"), nil

	case q.Action == models.ActionAdd && q.HasCoin() && q.HasAmount():
		return fmt.Sprintf("Got it! I've noted that you have %s %s. You can ask me to show your portfolio value anytime!",
			FormatAmount(q.Amount), strings.ToUpper(q.CoinSymbol)), nil
	}
	return msgPortfolioHint, nil
}

// ChartStrategy acknowledges a chart request. The series itself is attached
// by the caller.
type ChartStrategy struct{}

func (ChartStrategy) Generate(_ context.Context, q models.StructuredQuery, _ models.Portfolio) (string, error) {
	if !q.HasCoin() {
		return msgChartNoCoin, nil
	}
	return fmt.Sprintf("I'll show you the 7-day price chart for %s...", strings.ToUpper(q.CoinSymbol)), nil
}

// StatsStrategy summarizes a coin's market data and description.
type StatsStrategy struct {
	market repository.MarketData
}

func NewStatsStrategy(market repository.MarketData) *StatsStrategy {
	return &StatsStrategy{market: market}
}

func (s *StatsStrategy) Generate(ctx context.Context, q models.StructuredQuery, _ models.Portfolio) (string, error) {
	if !q.HasCoin() {
		return msgStatsNoCoin, nil
	}

	data, err := lookupCoin(ctx, s.market, q.CoinSymbol)
	if err != nil {
		return "", err
	}

	description := msgNoDescription
	if data.Description != "" {
		description = truncate(data.Description, descriptionCap) + "..."
	}

	return fmt.Sprintf("📊 %s (%s) Statistics:\n\n💰 Price: $%s\n📈 24h Change: %s%%\n🏆 Market Cap: $%sB\n🥇 Rank: #%s\n\n%s",
		data.Name, data.Symbol,
		FormatPrice(data.CurrentPrice),
		FormatPercent(data.PriceChangePercentage24h),
		FormatBillions(data.MarketCap),
		formatRank(data.MarketCapRank),
		description,
	), nil
}

type HelpStrategy struct{}

func (HelpStrategy) Generate(context.Context, models.StructuredQuery, models.Portfolio) (string, error) {
	return msgHelp, nil
}

type UnknownStrategy struct{}

func (UnknownStrategy) Generate(context.Context, models.StructuredQuery, models.Portfolio) (string, error) {
	return msgUnknown, nil
}

func lookupCoin(ctx context.Context, market repository.MarketData, symbol string) (*models.CoinData, error) {
	id, err := market.SearchCoin(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return market.GetCoinPrice(ctx, id)
}

func formatRank(rank int) string {
	if rank <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", rank)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
