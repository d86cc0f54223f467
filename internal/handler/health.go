package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/pkg/health"
	"github.com/teamtime/clockwork/pkg/logger"
	"go.uber.org/zap"
)

type HealthHandler struct {
	monitor *health.Monitor
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status    string `json:"status"`
	Required  bool   `json:"required"`
	LatencyMs int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

func NewHealthHandler(monitor *health.Monitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// HealthCheck pings every dependency. Only required ones (the database)
// turn the answer into a 503.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	results, healthy := h.monitor.CheckAll(c.Request.Context())

	response := HealthCheckResponse{
		Status:    "healthy",
		Version:   constants.AppVersion,
		Timestamp: time.Now(),
		Checks:    make(map[string]HealthCheck, len(results)),
	}
	for name, result := range results {
		check := HealthCheck{
			Status:    result.Status.String(),
			Required:  result.Required,
			LatencyMs: result.Latency.Milliseconds(),
		}
		if result.LastError != nil {
			check.Message = result.LastError.Error()
		}
		response.Checks[name] = check
	}

	statusCode := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, response)
}
