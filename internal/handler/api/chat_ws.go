package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/service/metrics"
	"CryptoChat/internal/usecase"
	applogger "CryptoChat/pkg/logger"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = wsPongWait * 9 / 10
	wsMaxFrameBytes  = 4096
	wsMessageTimeout = 30 * time.Second
)

// ChatSocketHandler runs one conversation per websocket connection.
type ChatSocketHandler struct {
	chat     *usecase.ChatUseCase
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

// wsInbound is a client frame: {"message": "..."}.
type wsInbound struct {
	Message string `json:"message"`
}

func NewChatSocketHandler(chat *usecase.ChatUseCase, l *applogger.Logger, allowOrigins ...string) *ChatSocketHandler {
	metrics.Register()
	if l == nil {
		l = applogger.Nop()
	}
	return &ChatSocketHandler{
		chat: chat,
		l:    l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowOrigins),
		},
	}
}

func (h *ChatSocketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/chat", h.Serve)
}

// Serve upgrades the request, sends the welcome reply and then answers
// each inbound message in order.
func (h *ChatSocketHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	metrics.WebSocketSessions.Inc()
	defer metrics.WebSocketSessions.Dec()

	session := c.QueryParam("session_id")
	if session == "" {
		session = uuid.NewString()
	}
	log := h.l.With(applogger.String("session", session))
	log.Debug("ws session opened")

	conn.SetReadLimit(wsMaxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	writes := make(chan any, 8)
	done := make(chan struct{})
	go h.writeLoop(ctx, conn, writes, done, log)

	writes <- h.chat.Welcome()
	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("ws read failed", applogger.Error(err))
			}
			break
		}
		if strings.TrimSpace(in.Message) == "" {
			continue
		}

		mctx, mcancel := context.WithTimeout(ctx, wsMessageTimeout)
		reply, err := h.chat.HandleMessage(mctx, session, in.Message)
		mcancel()
		if err != nil {
			if !errors.Is(err, models.ErrEmptyMessage) {
				metrics.ChatErrors.WithLabelValues("ws").Inc()
				log.Error("ws handle failed", applogger.Error(err))
			}
			continue
		}

		select {
		case writes <- reply:
		case <-done:
			return nil
		}
	}

	cancel()
	<-done
	log.Debug("ws session closed")
	return nil
}

// writeLoop owns all writes on conn.
func (h *ChatSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, writes <-chan any, done chan<- struct{}, log *applogger.Logger) {
	defer close(done)
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case v := <-writes:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(v); err != nil {
				log.Warn("ws write failed", applogger.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// originChecker allows any origin when origins is empty or contains "*".
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
