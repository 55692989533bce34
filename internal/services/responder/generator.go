// Package responder builds reply text for classified chat queries.
package responder

import (
	"context"
	"errors"
	"fmt"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/domain/repository"
	"CryptoChat/pkg/logger"
)

const (
	MsgRateLimited  = "🚫 The crypto API is currently rate-limited. Please try again in a moment!"
	MsgGenericError = "❌ Sorry, I encountered an error fetching that information. Please try again or ask about something else!"
)

// Option configures a Generator.
type Option func(*Generator)

func WithLogger(l *logger.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithStrategy overrides the strategy used for an intent.
func WithStrategy(intent models.IntentType, s Strategy) Option {
	return func(g *Generator) {
		g.strategies[intent] = s
	}
}

// Generator dispatches a query to the strategy registered for its intent.
type Generator struct {
	strategies map[models.IntentType]Strategy
	logger     *logger.Logger
	metrics    repository.Metrics
}

// NewGenerator registers the built-in strategies backed by market.
func NewGenerator(market repository.MarketData, opts ...Option) *Generator {
	g := &Generator{
		strategies: map[models.IntentType]Strategy{
			models.IntentPrice:     NewPriceStrategy(market),
			models.IntentTrending:  NewTrendingStrategy(market),
			models.IntentPortfolio: PortfolioStrategy{},
			models.IntentChart:     ChartStrategy{},
			models.IntentStats:     NewStatsStrategy(market),
			models.IntentHelp:      HelpStrategy{},
			models.IntentUnknown:   UnknownStrategy{},
		},
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateResponse always returns user-facing text. Strategy failures are
// turned into an apology; rate limiting gets its own message.
func (g *Generator) GenerateResponse(ctx context.Context, q models.StructuredQuery, portfolio models.Portfolio) string {
	strategy, ok := g.strategies[q.Intent]
	if !ok {
		strategy = g.strategies[models.IntentUnknown]
	}

	reply, err := g.run(ctx, strategy, q, portfolio)
	if err == nil {
		return reply
	}

	kind := "strategy"
	if errors.Is(err, models.ErrRateLimited) {
		kind = "rate_limited"
	}

	g.logger.Warn("response strategy failed",
		logger.String("intent", string(q.Intent)),
		logger.String("coin", q.CoinSymbol),
		logger.String("kind", kind),
		logger.Error(err),
	)
	if g.metrics != nil {
		g.metrics.RecordError(kind)
	}
	return ErrorMessage(err)
}

// ErrorMessage maps an error to the reply shown to users.
func ErrorMessage(err error) string {
	if errors.Is(err, models.ErrRateLimited) {
		return MsgRateLimited
	}
	return MsgGenericError
}

func (g *Generator) run(ctx context.Context, s Strategy, q models.StructuredQuery, p models.Portfolio) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()
	return s.Generate(ctx, q, p)
}
