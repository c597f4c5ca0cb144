package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds the HTTP surface configuration
type RouterConfig struct {
	AllowedOrigins    []string
	RequestsPerSecond float64
	RateBurst         int
}

// NewRouter builds the gin engine with the action endpoint and middleware.
// Only POST is registered for the receipts route; any other method gets a
// 405 before action dispatch.
func NewRouter(handler *Handler, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	if cfg.RequestsPerSecond > 0 {
		router.Use(RateLimiter(cfg.RequestsPerSecond, cfg.RateBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "receipt-bridge",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.POST("/api/receipts", handler.Dispatch)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", requestIDHeader}

	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}

	return cors.New(corsConfig)
}
