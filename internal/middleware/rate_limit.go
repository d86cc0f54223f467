package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/pkg/logger"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// NewRateLimiter allows maxRequest hits per key within each period, counted
// in an in-memory store.
func NewRateLimiter(maxRequest int, period time.Duration) *limiter.Limiter {
	rate := limiter.Rate{Period: period, Limit: int64(maxRequest)}
	return limiter.New(memory.NewStore(), rate)
}

// RateLimit limits requests per client IP. name tags the log line so the
// global and login limiters can be told apart. A store failure lets the
// request through.
func RateLimit(name string, maxRequest int, duration time.Duration) gin.HandlerFunc {
	instance := NewRateLimiter(maxRequest, duration)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		lctx, err := instance.Get(c.Request.Context(), ip)
		if err != nil {
			logger.GetLogger().Error("Rate limiter unavailable",
				zap.String("limiter", name),
				zap.String("client_ip", ip),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("limiter", name),
				zap.String("client_ip", ip),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", maxRequest),
				zap.Duration("duration", duration),
			)

			c.Header("Retry-After", strconv.FormatInt(retryAfter(lctx.Reset, time.Now()), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, constants.BuildErrorResponse(constants.MsgTooManyRequest, nil))
			return
		}

		c.Next()
	}
}

// retryAfter converts the window's reset timestamp into whole seconds, never
// less than one.
func retryAfter(reset int64, now time.Time) int64 {
	if secs := reset - now.Unix(); secs > 0 {
		return secs
	}
	return 1
}
