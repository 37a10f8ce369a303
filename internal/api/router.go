// Package api exposes the chat service over HTTP and websockets.
package api

import (
	"property-chat/internal/chat"
	"property-chat/internal/common/config"
	"property-chat/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with every public route mounted.
func NewRouter(cfg config.ServerConfig, service *chat.Service, checks []ReadinessCheck, log logger.Logger) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	h := NewHandler(service, checks, log.WithFields(map[string]interface{}{"component": "api"}))

	r := gin.New()
	r.Use(Recovery(log))
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.AllowedOrigins))

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chatAPI := r.Group("/api/chat")
	{
		chatAPI.GET("/init", h.Init)
		chatAPI.POST("/message", h.SendMessage)
		chatAPI.POST("/session", h.SessionAction)
		chatAPI.GET("/sessions/:id/messages", h.History)
	}

	r.GET("/ws/chat", h.ServeChatSocket(newUpgrader(cfg.AllowedOrigins)))

	return r
}
