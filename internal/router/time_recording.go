package router

import (
	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	"github.com/teamtime/clockwork/internal/middleware"
)

func (r *Router) timeRecordingRoutes(rg *gin.RouterGroup) {
	recordings := rg.Group("/timerecordings")
	recordings.Use(r.jwtMw.RequireAuth())
	{
		recordings.GET("", r.timeRecordingHandler.List)
		recordings.GET("/stats", r.timeRecordingHandler.Stats)
		recordings.GET("/:id", r.timeRecordingHandler.Get)

		recordings.POST("",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.CreateTimeRecordingRequest{} }),
			r.timeRecordingHandler.Create)

		// Employees never edit or delete, even their own records
		recordings.PUT("/:id",
			middleware.RequireRole(constants.RoleAdmin, constants.RoleManager),
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.UpdateTimeRecordingRequest{} }),
			r.timeRecordingHandler.Update)
		recordings.DELETE("/:id",
			middleware.RequireRole(constants.RoleAdmin, constants.RoleManager),
			r.timeRecordingHandler.Delete)
	}
}

func (r *Router) teamRoutes(rg *gin.RouterGroup) {
	teams := rg.Group("/teams")
	teams.Use(r.jwtMw.RequireAuth())
	{
		teams.GET("/:id/stats", r.teamHandler.Stats)
	}
}
