package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/pkg/logger"
	"go.uber.org/zap"
)

// StatsCacheAdmin is implemented by *service.CacheService.
type StatsCacheAdmin interface {
	InvalidateStats(ctx context.Context)
	BreakerStats() map[string]interface{}
}

type CacheHandler struct {
	cacheService StatsCacheAdmin
}

func NewCacheHandler(cacheService StatsCacheAdmin) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
	}
}

type InvalidateCacheResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// InvalidateStats drops every cached statistics response.
func (h *CacheHandler) InvalidateStats(c *gin.Context) {
	h.cacheService.InvalidateStats(c.Request.Context())

	logger.GetLogger().Info("Statistics cache invalidated by admin",
		zap.String("client_ip", c.ClientIP()),
	)

	c.JSON(http.StatusOK, InvalidateCacheResponse{
		Success: true,
		Message: "Statistics cache invalidated",
	})
}

// Status reports the state of the breaker guarding the remote cache.
func (h *CacheHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.cacheService.BreakerStats())
}
