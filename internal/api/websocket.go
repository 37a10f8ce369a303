package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"property-chat/internal/chat"
	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/metrics"
	"property-chat/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	sendBuffer = 32
)

// Frame types on the chat socket.
const (
	FrameMessage = "message"
	FrameReply   = "reply"
	FrameError   = "error"
)

// InboundFrame is what the widget sends over the socket.
type InboundFrame struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	SessionID string                 `json:"sessionId,omitempty"`
	VisitorID string                 `json:"visitorId,omitempty"`
	UserID    string                 `json:"userId,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// OutboundFrame carries either a reply or an error with a fallback answer.
type OutboundFrame struct {
	Type             string                    `json:"type"`
	Reply            *chat.SendMessageResponse `json:"reply,omitempty"`
	Error            string                    `json:"error,omitempty"`
	Content          string                    `json:"content,omitempty"`
	SuggestedActions []models.Action           `json:"suggestedActions,omitempty"`
}

type wsClient struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	service *chat.Service
	logger  logger.Logger

	sessionID string
	visitorID string
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// ServeChatSocket upgrades GET /ws/chat and runs the pumps until the peer leaves.
func (h *Handler) ServeChatSocket(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("Websocket upgrade failed", map[string]interface{}{"error": err.Error()})
			return
		}

		client := &wsClient{
			conn:      conn,
			send:      make(chan []byte, sendBuffer),
			done:      make(chan struct{}),
			service:   h.service,
			logger:    h.logger.WithFields(map[string]interface{}{"channel": chat.ChannelWebsocket}),
			sessionID: c.Query("sessionId"),
			visitorID: c.Query("visitorId"),
		}

		metrics.WebsocketConnections.Inc()
		defer metrics.WebsocketConnections.Dec()

		go client.writePump()
		client.readPump(c.Request.Context())
	}
}

// readPump handles inbound frames one at a time so turns within a
// connection stay ordered.
func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Websocket closed unexpectedly", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		out := c.handle(ctx, data)
		payload, err := json.Marshal(out)
		if err != nil {
			c.logger.Error("Failed to encode frame", map[string]interface{}{"error": err.Error()})
			continue
		}

		select {
		case c.send <- payload:
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) handle(ctx context.Context, data []byte) OutboundFrame {
	var in InboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		return c.errorFrame("Invalid message format")
	}
	if in.Type != "" && in.Type != FrameMessage {
		return c.errorFrame("Unsupported frame type: " + in.Type)
	}

	req := chat.SendMessageRequest{
		Message:   in.Message,
		SessionID: firstNonEmpty(in.SessionID, c.sessionID),
		VisitorID: firstNonEmpty(in.VisitorID, c.visitorID),
		UserID:    in.UserID,
		Context:   in.Context,
		Channel:   chat.ChannelWebsocket,
	}

	resp, err := c.service.SendMessage(ctx, req)
	if err != nil {
		if errors.HTTPStatus(err) == http.StatusBadRequest {
			return c.errorFrame(errors.NewMessageRequiredError().Message)
		}
		c.logger.Error("Websocket turn failed", map[string]interface{}{
			"sessionId": req.SessionID,
			"error":     err.Error(),
		})
		return c.errorFrame(errProcessMessage)
	}

	c.sessionID = resp.SessionID
	return OutboundFrame{Type: FrameReply, Reply: resp}
}

// errorFrame pairs the error with the clarifying fallback so the widget
// always has something to show.
func (c *wsClient) errorFrame(msg string) OutboundFrame {
	fb := c.service.Fallback()
	return OutboundFrame{
		Type:             FrameError,
		Error:            msg,
		Content:          fb.Text,
		SuggestedActions: fb.Actions,
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
