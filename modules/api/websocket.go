package api

import (
	"log/slog"
	"sync"
	"time"

	domain "github.com/example/realtime-chat/domain/user"
	"github.com/example/realtime-chat/modules/realtime"
	"github.com/gofiber/contrib/websocket"
)

// Inbound frame limits per connection.
const (
	messagesPerSecond = 10
	burstSize         = 20
	maxFrameSize      = 64 * 1024
	writeWait         = 10 * time.Second
)

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	tokensToAdd := int(now.Sub(r.lastRefill).Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// WebSocketHandler bridges websocket connections to the hub.
type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: slog.Default(),
	}
}

// Handle runs one connection: a write pump drains the session while this
// goroutine reads frames and dispatches them to the hub.
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	var authUserID string
	if claims, ok := c.Locals(UserContextKey).(*domain.Claims); ok && claims != nil {
		authUserID = claims.UserID
	}

	session := realtime.NewSession(authUserID, realtime.DefaultSendBuffer)
	limiter := newRateLimiter(burstSize, messagesPerSecond)
	h.hub.Register(session)

	pumpDone := make(chan struct{})
	go h.writePump(c, session, pumpDone)

	defer func() {
		h.hub.Unregister(session)
		<-pumpDone
		c.Close()
	}()

	c.SetReadLimit(maxFrameSize)
	h.logger.Info("WebSocket connected", "session", session.ID(), "user", authUserID)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket error", "session", session.ID(), "error", err)
			}
			break
		}

		if !limiter.allow() {
			h.logger.Warn("Dropping frame over rate limit", "session", session.ID())
			continue
		}
		h.hub.Dispatch(session, data)
	}

	h.logger.Info("WebSocket disconnected", "session", session.ID())
}

// writePump is the only writer on c. It returns once the session's outbound
// channel is closed, the hub stops, or a write fails.
func (h *WebSocketHandler) writePump(c *websocket.Conn, session *realtime.Session, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case frame, ok := <-session.Outbound():
			if !ok {
				h.closeConn(c)
				return
			}
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Error("WebSocket write failed", "session", session.ID(), "error", err)
				// Unblocks the reader so the session gets unregistered.
				_ = c.Close()
				return
			}
		case <-h.hub.Done():
			h.closeConn(c)
			return
		}
	}
}

func (h *WebSocketHandler) closeConn(c *websocket.Conn) {
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.Close()
}
