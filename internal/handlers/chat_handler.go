package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/chat"
	"github.com/anonto42/memoshare/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	streamBuffer   = 64
)

// ChatHandler serves mutual-follow chat channels over HTTP and websockets
type ChatHandler struct {
	chat     *chat.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(svc *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterChatRoutes registers chat-related routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.GET("/chats/:peer", h.History)
	g.POST("/chats/:peer", h.Send)
	g.GET("/chats/:peer/stream", h.Stream)
}

// History returns the channel's messages, oldest first
func (h *ChatHandler) History(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
	}
	msgs, err := h.chat.History(c.Request().Context(), userID, c.Param("peer"), limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, msgs)
}

// Send posts a message to the channel shared with :peer
func (h *ChatHandler) Send(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.chat.Send(c.Request().Context(), userID, c.Param("peer"), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, msg)
}

// Stream upgrades to a websocket that pushes new channel messages and
// accepts outgoing ones as JSON SendMessageRequest frames.
func (h *ChatHandler) Stream(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	peerID := c.Param("peer")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	out := make(chan models.ChatMessage, streamBuffer)
	unsubscribe, err := h.chat.Subscribe(ctx, userID, peerID, func(m models.ChatMessage) {
		select {
		case out <- m:
		default:
			h.logger.Warn("chat stream backlog full, dropping message",
				zap.String("user_id", userID), zap.String("message_id", m.ID))
		}
	}, cancel)
	if err != nil {
		return err
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	go h.readPump(ctx, cancel, conn, userID, peerID)
	h.writePump(ctx, conn, out)
	return nil
}

func (h *ChatHandler) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, userID, peerID string) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req models.SendMessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("chat stream closed", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}
		if _, err := h.chat.Send(ctx, userID, peerID, req); err != nil {
			h.logger.Info("chat send over stream rejected", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

func (h *ChatHandler) writePump(ctx context.Context, conn *websocket.Conn, out <-chan models.ChatMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
