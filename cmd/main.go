package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/teamtime/clockwork/config"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/handler"
	"github.com/teamtime/clockwork/internal/middleware"
	"github.com/teamtime/clockwork/internal/repository"
	"github.com/teamtime/clockwork/internal/router"
	"github.com/teamtime/clockwork/internal/service"
	"github.com/teamtime/clockwork/pkg/cache"
	"github.com/teamtime/clockwork/pkg/circuit"
	"github.com/teamtime/clockwork/pkg/database"
	"github.com/teamtime/clockwork/pkg/health"
	"github.com/teamtime/clockwork/pkg/logger"
	"github.com/teamtime/clockwork/pkg/redis"
	"github.com/teamtime/clockwork/pkg/security"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	db, err := database.InitDatabase(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	database.EnsureConstraints(db)
	logger.GetLogger().Info("Database migrated successfully")

	hasher := security.NewPasswordHasher(0)
	if err := database.Seed(db, config.Seed, hasher); err != nil {
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
	}

	// Redis is optional: without it statistics are cached in process only
	redisClient, err := redis.NewClient(config)
	if err != nil {
		logger.GetLogger().Warn("Redis unavailable at startup, continuing without it", zap.Error(err))
		redisClient = redis.NewFromClient(nil)
	}
	defer redisClient.Close()

	localCache := cache.NewCache()
	defer localCache.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	recordingRepo := repository.NewTimeRecordingRepository(db)

	// Services
	tokenService := service.NewTokenService(
		config.JWT.AccessSecret,
		config.JWT.RefreshSecret,
		config.JWT.AccessTTL,
		config.JWT.RefreshTTL,
	)
	cacheService := service.NewCacheService(
		redisClient,
		localCache,
		circuit.NewBreaker("redis", circuit.DefaultConfig(), logger.GetLogger()),
		config.Cache.StatsTTL,
	)
	authService := service.NewAuthService(userRepo, tokenService, hasher)
	userService := service.NewUserService(userRepo, hasher)
	recordingService := service.NewTimeRecordingService(recordingRepo, userRepo, teamRepo, cacheService)
	statsService := service.NewStatsService(recordingRepo, userRepo, teamRepo, teamRepo, cacheService)

	monitor := health.NewMonitor(time.Minute, logger.GetLogger())
	monitor.Register(&health.PingChecker{Dependency: "database", Mandatory: true, Ping: database.Ping(db)})
	monitor.Register(&health.PingChecker{Dependency: "redis", Enabled: redisClient.IsEnabled, Ping: redisClient.Ping})
	monitor.Start()
	defer monitor.Stop()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, handler.CookieOptions{
		Name:   config.Cookie.Name,
		Path:   config.Cookie.Path,
		Domain: config.Cookie.Domain,
		Secure: config.IsProduction(),
		MaxAge: int(config.JWT.RefreshTTL.Seconds()),
	})

	r := router.NewRouter(
		handler.NewUserHandler(userService),
		authHandler,
		handler.NewTimeRecordingHandler(recordingService, statsService),
		handler.NewTeamHandler(statsService),
		handler.NewHealthHandler(monitor),
		handler.NewCacheHandler(cacheService),

		middleware.NewValidationMiddleware(),
		middleware.NewJWTMiddleware(tokenService),
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
	logger.GetLogger().Info("Server exited")
}
