package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teamtime/clockwork/config"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/handler"
	"github.com/teamtime/clockwork/internal/middleware"
)

const loginPath = "/auth/login"

type Router struct {
	userHandler          *handler.UserHandler
	authHandler          *handler.AuthHandler
	timeRecordingHandler *handler.TimeRecordingHandler
	teamHandler          *handler.TeamHandler
	healthHandler        *handler.HealthHandler
	cacheHandler         *handler.CacheHandler

	validMw *middleware.ValidationMiddleware
	jwtMw   *middleware.JWTMiddleware
	Config  *config.Config
}

func NewRouter(
	user *handler.UserHandler,
	auth *handler.AuthHandler,
	timeRecording *handler.TimeRecordingHandler,
	team *handler.TeamHandler,
	health *handler.HealthHandler,
	cache *handler.CacheHandler,

	validMw *middleware.ValidationMiddleware,
	jwtMw *middleware.JWTMiddleware,
	config *config.Config,
) *Router {
	return &Router{
		userHandler:          user,
		authHandler:          auth,
		timeRecordingHandler: timeRecording,
		teamHandler:          team,
		healthHandler:        health,
		cacheHandler:         cache,

		validMw: validMw,
		jwtMw:   jwtMw,
		Config:  config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.ContextMiddleware("http"))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityLoggingMiddleware(loginPath))
	router.Use(middleware.CORS())

	router.GET("/health", r.healthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	{
		api.Use(middleware.RateLimit("global", r.Config.RateLimit.Request, r.rateWindow()))
		api.Use(middleware.RequestTimeoutMiddleware(r.Config.App.Timeout))

		r.authRoutes(api)
		r.userRoutes(api)
		r.timeRecordingRoutes(api)
		r.teamRoutes(api)
		r.cacheRoutes(api)
	}

	return router
}

func (r *Router) rateWindow() time.Duration {
	return time.Duration(r.Config.RateLimit.Duration) * time.Second
}

// cacheRoutes exposes statistics cache maintenance to admins.
func (r *Router) cacheRoutes(rg *gin.RouterGroup) {
	cache := rg.Group("/admin/cache")
	cache.Use(r.jwtMw.RequireAuth(), middleware.RequireRole(constants.RoleAdmin))
	{
		cache.GET("/status", r.cacheHandler.Status)
		cache.DELETE("/stats", r.cacheHandler.InvalidateStats)
	}
}
