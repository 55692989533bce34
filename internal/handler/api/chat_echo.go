package api

import (
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/service/metrics"
	"CryptoChat/internal/service/ratelimit"
	"CryptoChat/internal/usecase"
	xhttp "CryptoChat/pkg/http"
	applogger "CryptoChat/pkg/logger"
	"CryptoChat/pkg/util"
)

const defaultStatsWindow = 24 * time.Hour

// ChatEchoHandler serves the chat REST API.
type ChatEchoHandler struct {
	chat *usecase.ChatUseCase
	rl   *ratelimit.Limiter
	l    *applogger.Logger
	now  func() time.Time

	capacity   float64
	refill     float64
	maxMessage int
}

type ChatHandlerOption func(*ChatEchoHandler)

// WithRateLimit sets the per-client token bucket for POST /api/chat.
func WithRateLimit(capacity, refillPerSec float64) ChatHandlerOption {
	return func(h *ChatEchoHandler) {
		h.capacity = capacity
		h.refill = refillPerSec
	}
}

// WithMaxMessageLength caps message length in runes.
func WithMaxMessageLength(n int) ChatHandlerOption {
	return func(h *ChatEchoHandler) { h.maxMessage = n }
}

func WithHandlerLogger(l *applogger.Logger) ChatHandlerOption {
	return func(h *ChatEchoHandler) {
		if l != nil {
			h.l = l
		}
	}
}

func WithLimiter(rl *ratelimit.Limiter) ChatHandlerOption {
	return func(h *ChatEchoHandler) { h.rl = rl }
}

func NewChatEchoHandler(chat *usecase.ChatUseCase, opts ...ChatHandlerOption) *ChatEchoHandler {
	metrics.Register()
	h := &ChatEchoHandler{
		chat:       chat,
		rl:         ratelimit.New(),
		l:          applogger.Nop(),
		now:        time.Now,
		capacity:   20,
		refill:     1,
		maxMessage: 500,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ChatEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/chat", h.Chat)
	g.GET("/chat/welcome", h.Welcome)
	g.GET("/portfolio", h.Portfolio)
	g.DELETE("/portfolio", h.ClearPortfolio)
	g.DELETE("/portfolio/holdings", h.RemoveHolding)
	g.GET("/coins/top", h.TopCoins)
	g.GET("/stats/intents", h.IntentStats)
}

func (h *ChatEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ChatEchoHandler) Chat(c echo.Context) error {
	defer observe("chat", time.Now())

	if !h.rl.Allow(c.RealIP()+":chat", h.capacity, h.refill) {
		h.l.Warn("chat rate_limited", applogger.String("remote", c.RealIP()))
		return h.fail(c, "chat", xhttp.TooManyRequestsError("Too many messages, slow down"))
	}

	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.maxMessage > 0 && utf8.RuneCountInString(req.Message) > h.maxMessage {
		return h.fail(c, "chat", xhttp.BadRequestErrorf("message must be at most %d characters", h.maxMessage))
	}

	reply, err := h.chat.HandleMessage(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return h.fail(c, "chat", err)
	}
	return xhttp.SuccessResponse(c, reply)
}

func (h *ChatEchoHandler) Welcome(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.chat.Welcome())
}

func (h *ChatEchoHandler) Portfolio(c echo.Context) error {
	defer observe("portfolio", time.Now())

	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	val, err := h.chat.Portfolio(c.Request().Context(), req.SessionID)
	if err != nil {
		return h.fail(c, "portfolio", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, val)
}

func (h *ChatEchoHandler) ClearPortfolio(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.chat.ClearPortfolio(c.Request().Context(), req.SessionID); err != nil {
		return h.fail(c, "portfolio", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *ChatEchoHandler) RemoveHolding(c echo.Context) error {
	req := &models.RemoveHoldingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.chat.RemoveHolding(c.Request().Context(), req.SessionID, req.CoinID)
	if err != nil {
		return h.fail(c, "portfolio", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *ChatEchoHandler) TopCoins(c echo.Context) error {
	defer observe("top_coins", time.Now())

	req := &models.TopCoinsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	coins, err := h.chat.TopCoins(c.Request().Context(), req.Limit)
	if err != nil {
		return h.fail(c, "top_coins", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=30")
	return xhttp.SuccessResponse(c, coins)
}

func (h *ChatEchoHandler) IntentStats(c echo.Context) error {
	defer observe("intent_stats", time.Now())

	req := &models.IntentStatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := util.TimeWindow(req.From, req.To, h.now(), defaultStatsWindow)
	if err != nil {
		return h.fail(c, "intent_stats", xhttp.BadRequestError(err.Error()))
	}

	counts, err := h.chat.IntentStats(c.Request().Context(), from, to)
	if err != nil {
		return h.fail(c, "intent_stats", err)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"from":    from,
		"to":      to,
		"intents": counts,
	})
}

// fail maps domain errors onto API errors.
func (h *ChatEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	metrics.ChatErrors.WithLabelValues(endpoint).Inc()

	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, models.ErrEmptyMessage):
		appErr = xhttp.BadRequestError(err.Error())
	case errors.Is(err, models.ErrHoldingNotFound):
		appErr = xhttp.NotFoundError(err.Error())
	case errors.Is(err, models.ErrRateLimited):
		appErr = xhttp.TooManyRequestsError("Market data is rate limited, try again shortly")
	case errors.Is(err, models.ErrStatsUnavailable), errors.Is(err, models.ErrMarketData):
		appErr = xhttp.ServiceUnavailableError(err.Error())
	default:
		appErr = xhttp.InternalError("Something went wrong").WithError(err)
	}

	if appErr.Status >= http.StatusInternalServerError {
		h.l.Error("chat api error", applogger.String("endpoint", endpoint), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func observe(endpoint string, start time.Time) {
	metrics.ChatLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
