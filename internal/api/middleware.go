package api

import (
	"net/http"
	"time"

	"property-chat/internal/common/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request on the service logger.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"uri":       c.Request.RequestURI,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIp":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request", fields)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP request", fields)
		default:
			log.Info("HTTP request", fields)
		}
	}
}

// Recovery turns panics into the fixed 500 body.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("Panic recovered", map[string]interface{}{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errProcessMessage})
	})
}

// CORS allows the configured widget origins.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
