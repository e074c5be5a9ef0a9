package handler

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxFrameBytes = 8 << 10

// socket adapts a websocket to the registry. gorilla allows one concurrent
// writer, so writes are serialized here.
type socket struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newSocket(conn *websocket.Conn, writeTimeout time.Duration) *socket {
	return &socket{conn: conn, writeTimeout: writeTimeout}
}

func (s *socket) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (s *socket) Close(reason string) error {
	return s.closeWith(websocket.CloseNormalClosure, reason)
}

func (s *socket) closeWith(code int, reason string) error {
	s.mu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
	s.mu.Unlock()

	return s.conn.Close()
}

// chatSocket upgrades before authenticating so that a rejected client sees a
// policy-violation close frame rather than a plain HTTP error.
func (h *Handler) chatSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	ws := newSocket(conn, h.cfg.ChatWriteTimeout)
	ctx := c.Request.Context()

	account, err := h.auth.Authenticate(ctx, c.Query("token"))
	if err != nil {
		_ = ws.closeWith(websocket.ClosePolicyViolation, "invalid token")
		return
	}

	if err := h.chat.Join(ctx, account, ws); err != nil {
		if customErrors.IsInvalidToken(err) {
			_ = ws.closeWith(websocket.ClosePolicyViolation, "unknown account")
			return
		}
		h.log.Error("chat join", zap.Error(err))
		_ = ws.closeWith(websocket.CloseInternalServerErr, "internal error")
		return
	}
	defer conn.Close()
	defer h.chat.Leave(ws)

	conn.SetReadLimit(maxFrameBytes)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.Debug("chat read", zap.String("account", account), zap.Error(err))
			}
			return
		}

		if err := h.chat.Handle(ctx, account, data); err != nil {
			if customErrors.IsInvalidArgument(err) {
				h.log.Debug("chat frame rejected", zap.String("account", account), zap.Error(err))
				continue
			}
			h.log.Error("chat frame", zap.String("account", account), zap.Error(err))
		}
	}
}

func (h *Handler) messages(c *gin.Context) {
	// malformed limits fall back to the default page size
	limit, _ := strconv.Atoi(c.Query("limit"))

	out, err := h.chat.History(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) online(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OnlineResponse{Accounts: h.chat.Online()})
}
