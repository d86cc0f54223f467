package router

import (
	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/middleware"
)

func (r *Router) userRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.Use(r.jwtMw.RequireAuth())
		{
			users.POST("", middleware.RequireRole(constants.RoleAdmin), r.userHandler.CreateUser)

			// Admin or self
			users.GET("/:id", r.userHandler.GetByID)
			users.PUT("/:id/password", r.userHandler.UpdatePassword)
		}
	}
}
