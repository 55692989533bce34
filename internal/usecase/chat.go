package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CryptoChat/internal/domain/models"
	drepo "CryptoChat/internal/domain/repository"
	"CryptoChat/internal/services/features"
	"CryptoChat/internal/services/responder"
	applogger "CryptoChat/pkg/logger"
)

const DefaultSessionID = "default"

// WelcomeMessage greets a new conversation.
const WelcomeMessage = `🚀 Welcome to CryptoChat! I'm your personal crypto assistant.

I can help you with:
• Real-time crypto prices
• Trending cryptocurrencies
• Portfolio tracking
• Price charts and stats

Try asking me "What's BTC trading at?" or "Show me trending coins" to get started!`

type QueryParser interface {
	ParseQuery(text string) models.StructuredQuery
}

type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, q models.StructuredQuery, portfolio models.Portfolio) string
}

// EventSink accepts chat events without blocking.
type EventSink interface {
	Submit(e *models.ChatEvent) bool
}

type ChatOption func(*ChatUseCase)

func WithEventSink(s EventSink) ChatOption {
	return func(u *ChatUseCase) { u.events = s }
}

func WithEventStats(s drepo.EventStats) ChatOption {
	return func(u *ChatUseCase) { u.stats = s }
}

func WithChatMetrics(m drepo.Metrics) ChatOption {
	return func(u *ChatUseCase) { u.metrics = m }
}

func WithChatLogger(l *applogger.Logger) ChatOption {
	return func(u *ChatUseCase) {
		if l != nil {
			u.log = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ChatOption {
	return func(u *ChatUseCase) { u.now = now }
}

// ChatUseCase turns one user message into a reply: classify, update the
// session's portfolio, generate text, attach chart data, record the event.
type ChatUseCase struct {
	parser    QueryParser
	responder ResponseGenerator
	market    drepo.MarketData
	store     drepo.PortfolioStore
	events    EventSink
	stats     drepo.EventStats
	metrics   drepo.Metrics
	log       *applogger.Logger
	now       func() time.Time

	sessions sync.Map // session id -> *sync.Mutex
}

func NewChatUseCase(
	parser QueryParser,
	gen ResponseGenerator,
	market drepo.MarketData,
	store drepo.PortfolioStore,
	opts ...ChatOption,
) *ChatUseCase {
	u := &ChatUseCase{
		parser:    parser,
		responder: gen,
		market:    market,
		store:     store,
		log:       applogger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Welcome returns the greeting sent when a conversation opens.
func (u *ChatUseCase) Welcome() *models.ChatReply {
	return &models.ChatReply{
		ID:        uuid.NewString(),
		Content:   WelcomeMessage,
		Type:      models.ReplyText,
		Query:     models.StructuredQuery{Intent: models.IntentHelp, Confidence: 1},
		Timestamp: u.now(),
	}
}

// HandleMessage answers text for sessionID. Market data failures end up in
// the reply, not in the error; only blank input is rejected.
func (u *ChatUseCase) HandleMessage(ctx context.Context, sessionID, text string) (*models.ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	start := u.now()

	unlock := u.lockSession(sessionID)
	defer unlock()

	q := u.parser.ParseQuery(text)
	if u.metrics != nil {
		u.metrics.RecordQuery(string(q.Intent), q.Confidence)
	}

	reply := &models.ChatReply{
		ID:    uuid.NewString(),
		Type:  models.ReplyText,
		Query: q,
	}

	portfolio := u.loadPortfolio(ctx, sessionID)
	if isAddHolding(q) {
		updated, err := u.addHolding(ctx, sessionID, portfolio, q)
		if err != nil {
			u.log.Warn("portfolio add failed",
				applogger.String("session", sessionID),
				applogger.String("coin", q.CoinSymbol),
				applogger.Error(err),
			)
			reply.Content = responder.ErrorMessage(err)
			reply.Type = models.ReplyError
			return u.finish(sessionID, text, reply, start), nil
		}
		portfolio = updated
	}

	reply.Content = u.responder.GenerateResponse(ctx, q, portfolio)

	if q.Intent == models.IntentChart && q.HasCoin() {
		symbol := strings.ToUpper(q.CoinSymbol)
		chart, err := u.chart(ctx, q.CoinSymbol)
		if err != nil {
			u.log.Warn("chart data failed", applogger.String("coin", symbol), applogger.Error(err))
			reply.Content = fmt.Sprintf("Sorry, I couldn't fetch the chart data for %s. Please try again.", symbol)
		} else {
			reply.Content = fmt.Sprintf("7-day price chart for %s:", symbol)
			reply.Type = models.ReplyChart
			reply.Chart = chart
		}
	}

	return u.finish(sessionID, text, reply, start), nil
}

// Portfolio values the session's holdings at current prices. Holdings that
// could not be priced are returned with Priced=false.
func (u *ChatUseCase) Portfolio(ctx context.Context, sessionID string) (*models.PortfolioValuation, error) {
	p, err := u.store.Load(ctx, sessionOrDefault(sessionID))
	if err != nil {
		return nil, err
	}
	val := &models.PortfolioValuation{Holdings: make([]models.ValuedHolding, 0, len(p))}
	if p.IsEmpty() {
		return val, nil
	}

	ids := p.IDs()
	prices := make(map[string]models.CoinData, len(ids))
	data, err := u.market.GetCoinsData(ctx, ids)
	if err != nil {
		u.log.Warn("portfolio pricing failed", applogger.Int("holdings", len(ids)), applogger.Error(err))
	}
	for _, d := range data {
		prices[d.ID] = d
	}

	total := decimal.Zero
	for _, id := range ids {
		h := p[id]
		vh := models.ValuedHolding{CoinID: id, Holding: h}
		if d, ok := prices[id]; ok {
			value := decimal.NewFromFloat(h.Amount).Mul(decimal.NewFromFloat(d.CurrentPrice))
			vh.Price = d.CurrentPrice
			vh.Change24 = d.PriceChangePercentage24h
			vh.Value = value.Round(2).InexactFloat64()
			vh.Priced = true
			total = total.Add(value)
		}
		val.Holdings = append(val.Holdings, vh)
	}
	val.Total = total.Round(2).InexactFloat64()
	return val, nil
}

// RemoveHolding deletes one coin id from the session's portfolio.
func (u *ChatUseCase) RemoveHolding(ctx context.Context, sessionID, coinID string) (models.Portfolio, error) {
	sessionID = sessionOrDefault(sessionID)
	unlock := u.lockSession(sessionID)
	defer unlock()

	p, err := u.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := p[coinID]; !ok {
		return p, models.ErrHoldingNotFound
	}
	updated := p.Without(coinID)
	if err := u.store.Save(ctx, sessionID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (u *ChatUseCase) ClearPortfolio(ctx context.Context, sessionID string) error {
	sessionID = sessionOrDefault(sessionID)
	unlock := u.lockSession(sessionID)
	defer unlock()
	return u.store.Clear(ctx, sessionID)
}

// TopCoins lists the largest coins by market cap.
func (u *ChatUseCase) TopCoins(ctx context.Context, limit int) ([]models.CoinData, error) {
	return u.market.GetTopCoins(ctx, limit)
}

// IntentStats reports recorded traffic per intent in [from, to).
func (u *ChatUseCase) IntentStats(ctx context.Context, from, to time.Time) ([]models.IntentCount, error) {
	if u.stats == nil {
		return nil, models.ErrStatsUnavailable
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid range: from %s is not before to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return u.stats.IntentCounts(ctx, from, to)
}

func (u *ChatUseCase) addHolding(ctx context.Context, sessionID string, p models.Portfolio, q models.StructuredQuery) (models.Portfolio, error) {
	coinID, err := u.market.SearchCoin(ctx, q.CoinSymbol)
	if err != nil {
		return nil, err
	}
	data, err := u.market.GetCoinPrice(ctx, coinID)
	if err != nil {
		return nil, err
	}

	updated := p.With(coinID, models.Holding{Amount: q.Amount, Symbol: data.Symbol, Name: data.Name})
	if err := u.store.Save(ctx, sessionID, updated); err != nil {
		// the reply still confirms; the holding lives only for this message
		u.log.Error("portfolio save failed", applogger.String("session", sessionID), applogger.Error(err))
		if u.metrics != nil {
			u.metrics.RecordError("portfolio_save")
		}
	}
	return updated, nil
}

func (u *ChatUseCase) chart(ctx context.Context, symbol string) (*models.ChartData, error) {
	coinID, err := u.market.SearchCoin(ctx, symbol)
	if err != nil {
		return nil, err
	}
	points, err := u.market.GetCoinHistory(ctx, coinID)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errors.New("empty price history")
	}
	return &models.ChartData{
		Symbol:  strings.ToUpper(symbol),
		Points:  points,
		Metrics: features.ComputePriceMetrics(points),
	}, nil
}

func (u *ChatUseCase) loadPortfolio(ctx context.Context, sessionID string) models.Portfolio {
	p, err := u.store.Load(ctx, sessionID)
	if err != nil {
		u.log.Warn("portfolio load failed", applogger.String("session", sessionID), applogger.Error(err))
		return models.Portfolio{}
	}
	return p
}

func (u *ChatUseCase) finish(sessionID, text string, reply *models.ChatReply, start time.Time) *models.ChatReply {
	reply.Timestamp = u.now()
	latency := reply.Timestamp.Sub(start)
	if u.metrics != nil {
		u.metrics.RecordLatency("chat.handle", latency.Seconds())
	}
	if u.events != nil {
		q := reply.Query
		u.events.Submit(&models.ChatEvent{
			EventID:    reply.ID,
			SessionID:  sessionID,
			Message:    text,
			Intent:     q.Intent,
			Confidence: q.Confidence,
			CoinSymbol: q.CoinSymbol,
			Amount:     q.Amount,
			Action:     q.Action,
			ReplyType:  reply.Type,
			LatencyMs:  latency.Milliseconds(),
			Timestamp:  reply.Timestamp,
		})
	}
	return reply
}

func (u *ChatUseCase) lockSession(sessionID string) func() {
	v, _ := u.sessions.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func isAddHolding(q models.StructuredQuery) bool {
	return q.Intent == models.IntentPortfolio && q.Action == models.ActionAdd && q.HasCoin() && q.HasAmount()
}

func sessionOrDefault(id string) string {
	if id == "" {
		return DefaultSessionID
	}
	return id
}
