package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"go.uber.org/zap"
)

// ContextMiddleware seeds the request context with the request id, client
// IP, user agent and start time read by the context logger. The request id
// is echoed in the X-Request-ID response header.
func ContextMiddleware(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, module, c.FullPath())
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderXRequestID, ctxutil.GetRequestID(ctx))

		c.Next()

		logger.DebugWithContext(ctx, "Request completed").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Int("response_size", c.Writer.Size()).
			Duration(ctxutil.GetDuration(ctx)).
			Log()
	}
}

// RequestTimeoutMiddleware bounds every downstream database call.
func RequestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			logger.GetLogger().Warn("Request timed out",
				zap.String("request_id", ctxutil.GetRequestID(ctx)),
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", timeout))
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, constants.BuildErrorResponse("Request timeout", nil))
		}
	}
}
