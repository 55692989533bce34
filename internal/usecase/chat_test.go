package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/repository"
	"CryptoChat/internal/services/classifier"
	"CryptoChat/internal/services/responder"
	"CryptoChat/pkg/cache"
)

type chatFixture struct {
	uc      *ChatUseCase
	market  *stubMarket
	store   *repository.CachePortfolioStore
	sink    *captureSink
	metrics *countingMetrics
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	f := &chatFixture{
		market:  newStubMarket(),
		store:   repository.NewCachePortfolioStore(mem, "portfolio", 0),
		sink:    &captureSink{},
		metrics: newCountingMetrics(),
	}
	f.uc = NewChatUseCase(
		classifier.New(),
		responder.NewGenerator(f.market),
		f.market,
		f.store,
		WithEventSink(f.sink),
		WithChatMetrics(f.metrics),
		WithClock(fixedClock()),
	)
	return f
}

func TestHandleMessage_RejectsBlank(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.uc.HandleMessage(context.Background(), "s1", "   ")
	assert.ErrorIs(t, err, models.ErrEmptyMessage)
	assert.Empty(t, f.sink.events)
}

func TestHandleMessage_Price(t *testing.T) {
	f := newChatFixture(t)
	reply, err := f.uc.HandleMessage(context.Background(), "s1", "What's BTC trading at?")
	require.NoError(t, err)

	assert.Equal(t, models.ReplyText, reply.Type)
	assert.Equal(t, models.IntentPrice, reply.Query.Intent)
	assert.Contains(t, reply.Content, "Bitcoin (BTC) is currently trading at $40,000.00 📈")
	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, 1, f.metrics.queries["price"])

	require.Len(t, f.sink.events, 1)
	ev := f.sink.events[0]
	assert.Equal(t, reply.ID, ev.EventID)
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, "btc", ev.CoinSymbol)
	assert.Equal(t, models.ReplyText, ev.ReplyType)
	assert.Equal(t, reply.Timestamp, ev.Timestamp)
}

func TestHandleMessage_AddHoldingUpdatesPortfolio(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	reply, err := f.uc.HandleMessage(ctx, "s1", "I have 2 ETH")
	require.NoError(t, err)
	assert.Equal(t, "Got it! I've noted that you have 2 ETH. You can ask me to show your portfolio value anytime!", reply.Content)

	p, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.Portfolio{"ethereum": {Amount: 2, Symbol: "ETH", Name: "Ethereum"}}, p)

	reply, err = f.uc.HandleMessage(ctx, "s1", "show my portfolio")
	require.NoError(t, err)
	assert.Equal(t, "📊 Your current portfolio:\n\n2 ETH (Ethereum)", reply.Content)

	other, err := f.uc.HandleMessage(ctx, "s2", "show my portfolio")
	require.NoError(t, err)
	assert.Contains(t, other.Content, "Your portfolio is empty.")
}

func TestHandleMessage_AddHoldingReplacesAmount(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.uc.HandleMessage(ctx, "", "I own 0.5 BTC")
	require.NoError(t, err)
	_, err = f.uc.HandleMessage(ctx, "", "I have 1.25 bitcoin")
	require.NoError(t, err)

	p, err := f.store.Load(ctx, DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, 1.25, p["bitcoin"].Amount)
	assert.Len(t, p, 1)
}

func TestHandleMessage_AddHoldingUnknownCoin(t *testing.T) {
	f := newChatFixture(t)
	reply, err := f.uc.HandleMessage(context.Background(), "s1", "I have 3 DOGE")
	require.NoError(t, err)

	assert.Equal(t, models.ReplyError, reply.Type)
	assert.Equal(t, responder.MsgGenericError, reply.Content)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, models.ReplyError, f.sink.events[0].ReplyType)

	p, err := f.store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestHandleMessage_AddHoldingRateLimited(t *testing.T) {
	f := newChatFixture(t)
	f.market.err = &models.MarketDataError{Op: "search", Err: models.ErrRateLimited}

	reply, err := f.uc.HandleMessage(context.Background(), "s1", "I have 2 ETH")
	require.NoError(t, err)
	assert.Equal(t, responder.MsgRateLimited, reply.Content)
	assert.Equal(t, models.ReplyError, reply.Type)
}

func TestHandleMessage_Chart(t *testing.T) {
	f := newChatFixture(t)
	reply, err := f.uc.HandleMessage(context.Background(), "s1", "show btc chart")
	require.NoError(t, err)

	assert.Equal(t, models.ReplyChart, reply.Type)
	assert.Equal(t, "7-day price chart for BTC:", reply.Content)
	require.NotNil(t, reply.Chart)
	assert.Equal(t, "BTC", reply.Chart.Symbol)
	assert.Len(t, reply.Chart.Points, 3)
	assert.Equal(t, 100.0, reply.Chart.Metrics.Min)
	assert.Equal(t, 120.0, reply.Chart.Metrics.Max)
	assert.InDelta(t, 20.0, reply.Chart.Metrics.ChangePercent, 1e-9)
	assert.True(t, reply.Chart.Metrics.IsPositive)
}

func TestHandleMessage_ChartFailure(t *testing.T) {
	f := newChatFixture(t)
	f.market.histErr = errors.New("timeout")

	reply, err := f.uc.HandleMessage(context.Background(), "s1", "eth chart")
	require.NoError(t, err)
	assert.Equal(t, models.ReplyText, reply.Type)
	assert.Equal(t, "Sorry, I couldn't fetch the chart data for ETH. Please try again.", reply.Content)
	assert.Nil(t, reply.Chart)
}

func TestHandleMessage_ChartWithoutCoin(t *testing.T) {
	f := newChatFixture(t)
	reply, err := f.uc.HandleMessage(context.Background(), "s1", "show me a chart")
	require.NoError(t, err)
	assert.Equal(t, models.ReplyText, reply.Type)
	assert.Contains(t, reply.Content, "I can show you price charts!")
}

func TestPortfolioValuation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, "s1", models.Portfolio{
		"bitcoin":  {Amount: 0.5, Symbol: "BTC", Name: "Bitcoin"},
		"ethereum": {Amount: 2, Symbol: "ETH", Name: "Ethereum"},
		"mystery":  {Amount: 10, Symbol: "MYS", Name: "Mystery"},
	}))

	val, err := f.uc.Portfolio(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, val.Holdings, 3)

	assert.Equal(t, "bitcoin", val.Holdings[0].CoinID)
	assert.Equal(t, 20000.0, val.Holdings[0].Value)
	assert.Equal(t, 5000.5, val.Holdings[1].Value)
	assert.False(t, val.Holdings[2].Priced)
	assert.Equal(t, 25000.5, val.Total)
}

func TestPortfolioValuation_PricingFailure(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, "s1", models.Portfolio{"bitcoin": {Amount: 1, Symbol: "BTC", Name: "Bitcoin"}}))
	f.market.err = models.ErrMarketData

	val, err := f.uc.Portfolio(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, val.Holdings, 1)
	assert.False(t, val.Holdings[0].Priced)
	assert.Zero(t, val.Total)
}

func TestRemoveHoldingAndClear(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, "s1", models.Portfolio{
		"bitcoin":  {Amount: 1, Symbol: "BTC", Name: "Bitcoin"},
		"ethereum": {Amount: 2, Symbol: "ETH", Name: "Ethereum"},
	}))

	p, err := f.uc.RemoveHolding(ctx, "s1", "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, []string{"ethereum"}, p.IDs())

	_, err = f.uc.RemoveHolding(ctx, "s1", "bitcoin")
	assert.ErrorIs(t, err, models.ErrHoldingNotFound)

	require.NoError(t, f.uc.ClearPortfolio(ctx, "s1"))
	val, err := f.uc.Portfolio(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, val.Holdings)
}

func TestTopCoinsAndWelcome(t *testing.T) {
	f := newChatFixture(t)
	coins, err := f.uc.TopCoins(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", coins[0].ID)

	w := f.uc.Welcome()
	assert.Equal(t, WelcomeMessage, w.Content)
	assert.Equal(t, models.ReplyText, w.Type)
}

type stubStats struct {
	from, to time.Time
}

func (s *stubStats) IntentCounts(_ context.Context, from, to time.Time) ([]models.IntentCount, error) {
	s.from, s.to = from, to
	return []models.IntentCount{{Intent: models.IntentPrice, Count: 4}}, nil
}

func TestIntentStats(t *testing.T) {
	f := newChatFixture(t)
	now := time.Now()

	_, err := f.uc.IntentStats(context.Background(), now.Add(-time.Hour), now)
	assert.ErrorIs(t, err, models.ErrStatsUnavailable)

	stats := &stubStats{}
	uc := NewChatUseCase(classifier.New(), responder.NewGenerator(f.market), f.market, f.store, WithEventStats(stats))

	_, err = uc.IntentStats(context.Background(), now, now)
	assert.Error(t, err)

	got, err := uc.IntentStats(context.Background(), now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got[0].Count)
	assert.Equal(t, now, stats.to)
}
