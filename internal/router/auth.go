package router

import (
	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/middleware"
)

func (r *Router) authRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		// Public routes: refresh and logout authenticate with the cookie
		auth.POST("/login",
			middleware.RateLimit("login", r.Config.RateLimit.LoginRequest, r.rateWindow()),
			r.authHandler.Login)
		auth.POST("/refresh", r.authHandler.Refresh)
		auth.POST("/logout", r.authHandler.Logout)

		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("/me", r.authHandler.Me)
		}
	}
}
