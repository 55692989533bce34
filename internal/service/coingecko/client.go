// Package coingecko implements market data lookups against the CoinGecko API.
package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/domain/repository"
	"CryptoChat/internal/service/ratelimit"
	"CryptoChat/pkg/cache"
	xhttp "CryptoChat/pkg/http"
	"CryptoChat/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	chartDays      = 7
	defaultTopSize = 10
	maxPageSize    = 250
	limiterKey     = "coingecko"
)

// CacheTTL sets how long each kind of response is reused. Zero disables caching for that kind.
type CacheTTL struct {
	Search   time.Duration
	Price    time.Duration
	History  time.Duration
	Trending time.Duration
	Markets  time.Duration
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.httpOpts = append(c.httpOpts, xhttp.WithHeader("x-cg-demo-api-key", key))
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpOpts = append(c.httpOpts, xhttp.WithTimeout(d))
		}
	}
}

func WithRetry(attempts int) Option {
	return func(c *Client) {
		c.attempts = attempts
	}
}

func WithCache(svc cache.Service, ttl CacheTTL) Option {
	return func(c *Client) {
		c.cache = svc
		c.ttl = ttl
	}
}

// WithRateLimit makes the client refuse calls beyond the given budget
// instead of spending the provider's quota.
func WithRateLimit(l *ratelimit.Limiter, capacity, refillPerSec float64) Option {
	return func(c *Client) {
		c.limiter = l
		c.capacity = capacity
		c.refill = refillPerSec
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Client implements repository.MarketData.
type Client struct {
	base     *HTTPServiceBase
	httpOpts []xhttp.ClientOption
	attempts int

	cache cache.Service
	ttl   CacheTTL

	limiter  *ratelimit.Limiter
	capacity float64
	refill   float64

	metrics repository.Metrics
	logger  *logger.Logger
}

var _ repository.MarketData = (*Client)(nil)

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpOpts: []xhttp.ClientOption{xhttp.WithTimeout(10 * time.Second)},
		attempts: 1,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base = NewHTTPServiceBase(strings.TrimRight(baseURL, "/"), c.httpOpts...)
	return c
}

// SearchCoin resolves a symbol or name to the id of the best matching coin.
func (c *Client) SearchCoin(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", &models.MarketDataError{Op: "search", Query: query, Err: models.ErrCoinNotFound}
	}

	return cachedOrLoad(ctx, c, cache.Key("cg:search", strings.ToLower(query)), c.ttl.Search, func(ctx context.Context) (string, error) {
		var resp searchResponse
		params := map[string][]string{"query": {query}}
		if err := c.get(ctx, "search", query, "/search", params, &resp, models.ErrCoinNotFound); err != nil {
			return "", err
		}
		if len(resp.Coins) == 0 {
			return "", &models.MarketDataError{Op: "search", Query: query, Err: models.ErrCoinNotFound}
		}
		return resp.Coins[0].ID, nil
	})
}

// GetCoinPrice fetches the market snapshot and description of a coin.
func (c *Client) GetCoinPrice(ctx context.Context, coinID string) (*models.CoinData, error) {
	data, err := cachedOrLoad(ctx, c, cache.Key("cg:coin", coinID), c.ttl.Price, func(ctx context.Context) (*models.CoinData, error) {
		var resp coinDetailResponse
		params := map[string][]string{
			"localization":   {"false"},
			"tickers":        {"false"},
			"market_data":    {"true"},
			"community_data": {"false"},
			"developer_data": {"false"},
			"sparkline":      {"false"},
		}
		if err := c.get(ctx, "coin", coinID, "/coins/"+url.PathEscape(coinID), params, &resp, models.ErrCoinNotFound); err != nil {
			return nil, err
		}
		return toCoinDataFromDetail(&resp), nil
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordLastPrice(data.Symbol, data.CurrentPrice)
	}
	return data, nil
}

// GetCoinHistory returns the last 7 days of USD prices, oldest first.
func (c *Client) GetCoinHistory(ctx context.Context, coinID string) ([]models.PricePoint, error) {
	return cachedOrLoad(ctx, c, cache.Key("cg:history", coinID, chartDays), c.ttl.History, func(ctx context.Context) ([]models.PricePoint, error) {
		var resp marketChartResponse
		params := map[string][]string{
			"vs_currency": {vsCurrency},
			"days":        {strconv.Itoa(chartDays)},
		}
		path := "/coins/" + url.PathEscape(coinID) + "/market_chart"
		if err := c.get(ctx, "history", coinID, path, params, &resp, models.ErrCoinNotFound); err != nil {
			return nil, err
		}
		return toPricePoints(&resp), nil
	})
}

// GetTrendingCoins returns the provider's trending list in its order.
func (c *Client) GetTrendingCoins(ctx context.Context) ([]models.TrendingCoin, error) {
	return cachedOrLoad(ctx, c, "cg:trending", c.ttl.Trending, func(ctx context.Context) ([]models.TrendingCoin, error) {
		var resp trendingResponse
		if err := c.get(ctx, "trending", "", "/search/trending", nil, &resp, models.ErrMarketData); err != nil {
			return nil, err
		}
		return toTrendingCoins(&resp), nil
	})
}

// GetCoinsData returns market snapshots for the given ids, ordered by market cap.
func (c *Client) GetCoinsData(ctx context.Context, coinIDs []string) ([]models.CoinData, error) {
	if len(coinIDs) == 0 {
		return []models.CoinData{}, nil
	}
	ids := append([]string(nil), coinIDs...)
	sort.Strings(ids)
	joined := strings.Join(ids, ",")
	size := len(ids)
	if size > maxPageSize {
		size = maxPageSize
	}

	return cachedOrLoad(ctx, c, cache.Key("cg:markets", joined), c.ttl.Markets, func(ctx context.Context) ([]models.CoinData, error) {
		return c.markets(ctx, "coins_data", joined, map[string][]string{"ids": {joined}}, size)
	})
}

// GetTopCoins returns the largest coins by market cap.
func (c *Client) GetTopCoins(ctx context.Context, limit int) ([]models.CoinData, error) {
	if limit <= 0 {
		limit = defaultTopSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return cachedOrLoad(ctx, c, cache.Key("cg:top", limit), c.ttl.Markets, func(ctx context.Context) ([]models.CoinData, error) {
		return c.markets(ctx, "top_coins", strconv.Itoa(limit), nil, limit)
	})
}

func (c *Client) markets(ctx context.Context, op, query string, extra map[string][]string, perPage int) ([]models.CoinData, error) {
	params := map[string][]string{
		"vs_currency": {vsCurrency},
		"order":       {"market_cap_desc"},
		"per_page":    {strconv.Itoa(perPage)},
		"page":        {"1"},
		"sparkline":   {"false"},
	}
	for k, v := range extra {
		params[k] = v
	}

	var resp []marketCoin
	if err := c.get(ctx, op, query, "/coins/markets", params, &resp, models.ErrMarketData); err != nil {
		return nil, err
	}
	return toCoinDataList(resp), nil
}

// get performs a throttled request and classifies failures. fallback is the
// sentinel reported for anything that is not rate limiting.
func (c *Client) get(ctx context.Context, op, query, path string, params map[string][]string, dest interface{}, fallback error) error {
	if c.limiter != nil && !c.limiter.Allow(limiterKey, c.capacity, c.refill) {
		c.observe(op, "throttled", 0)
		return &models.MarketDataError{Op: op, Query: query, Err: models.ErrRateLimited}
	}

	start := time.Now()
	err := c.base.GetJSONWithRetry(ctx, path, params, dest, c.attempts)
	elapsed := time.Since(start)
	if err == nil {
		c.observe(op, "", elapsed)
		return nil
	}

	mdErr := &models.MarketDataError{Op: op, Query: query, Err: fallback, Cause: err}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		mdErr.Status = se.StatusCode
		if se.StatusCode == http.StatusTooManyRequests {
			mdErr.Err = models.ErrRateLimited
		}
	}

	kind := "error"
	if errors.Is(mdErr, models.ErrRateLimited) {
		kind = "rate_limited"
	}
	c.observe(op, kind, elapsed)
	c.logger.Warn("coingecko request failed",
		logger.String("op", op),
		logger.String("query", query),
		logger.Int("status", mdErr.Status),
		logger.Error(err),
	)
	return mdErr
}

func (c *Client) observe(op, errKind string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	if errKind != "" {
		c.metrics.RecordError("coingecko_" + errKind)
	}
	if elapsed > 0 {
		c.metrics.RecordLatency("coingecko."+op, elapsed.Seconds())
	}
}

func cachedOrLoad[T any](ctx context.Context, c *Client, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c.cache == nil || ttl <= 0 {
		return load(ctx)
	}
	return cache.GetOrLoad(ctx, c.cache, key, ttl, load)
}
