package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-step-by-step/client-form/utils"
)

type HealthHandler struct {
	redis utils.RedisClient
}

// NewHealthHandler takes the session Redis, or nil when sessions live in memory.
func NewHealthHandler(redis utils.RedisClient) *HealthHandler {
	return &HealthHandler{redis: redis}
}

func (h *HealthHandler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c *gin.Context) {
	if h.redis == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"details": gin.H{"sessions": "memory"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "degraded",
			"details": gin.H{"redis": "unavailable"},
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"details": gin.H{"redis": "available"},
	})
}
