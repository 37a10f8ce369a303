package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"property-chat/internal/chat"
	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"

	"github.com/gin-gonic/gin"
)

const (
	errProcessMessage = "Failed to process message"
	errUpdateSession  = "Failed to update session"
	errLoadHistory    = "Failed to load messages"
)

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	service *chat.Service
	checks  []ReadinessCheck
	logger  logger.Logger
}

func NewHandler(service *chat.Service, checks []ReadinessCheck, log logger.Logger) *Handler {
	return &Handler{service: service, checks: checks, logger: log}
}

// SendMessage handles POST /api/chat/message.
func (h *Handler) SendMessage(c *gin.Context) {
	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.NewMessageRequiredError().Message})
		return
	}
	req.Channel = chat.ChannelHTTP

	resp, err := h.service.SendMessage(c.Request.Context(), req)
	if err != nil {
		h.abort(c, err, errProcessMessage)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Init handles GET /api/chat/init.
func (h *Handler) Init(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Init())
}

// SessionAction handles POST /api/chat/session.
func (h *Handler) SessionAction(c *gin.Context) {
	var req chat.SessionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.service.SessionAction(c.Request.Context(), req)
	if err != nil {
		h.abort(c, err, errUpdateSession)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History handles GET /api/chat/sessions/:id/messages.
func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	msgs, err := h.service.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.abort(c, err, errLoadHistory)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": c.Param("id"), "messages": msgs})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready probes every dependency and answers 503 if any fails.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			ready = false
			results[chk.Name] = err.Error()
			continue
		}
		results[chk.Name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// abort writes the client-facing error. Validation errors carry their own
// message; everything else gets the fixed fallback text.
func (h *Handler) abort(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)
	status := errors.HTTPStatus(err)

	msg := fallback
	if stdErr, ok := errors.AsStandard(err); ok && status < http.StatusInternalServerError {
		msg = stdErr.Message
		if stdErr.Details != "" && stdErr.Code == errors.ErrCodeInvalidSessionAction {
			msg = stdErr.Message + ": " + stdErr.Details
		}
	}
	c.JSON(status, gin.H{"error": msg})
}
