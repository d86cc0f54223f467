package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clockwork_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	authEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clockwork_auth_events_total",
			Help: "Authentication events by kind and outcome",
		},
		[]string{"event", "outcome"},
	)
	refreshReuseDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clockwork_refresh_reuse_detected_total",
			Help: "Refresh tokens replayed after rotation",
		},
	)
)

// MetricsMiddleware records request duration labelled by route template so
// ids in the path do not explode cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// RecordAuthEvent counts login/refresh/logout outcomes.
func RecordAuthEvent(event, outcome string) {
	authEvents.WithLabelValues(event, outcome).Inc()
}

func RecordRefreshReuse() {
	refreshReuseDetected.Inc()
}
