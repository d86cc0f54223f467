package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/dto"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
)

// TeamStatsUseCase is implemented by *service.StatsService.
type TeamStatsUseCase interface {
	TeamStats(ctx context.Context, caller ctxutil.Identity, teamID uint, startDate, endDate string) (*dto.TeamStatsResponse, error)
}

type TeamHandler struct {
	stats TeamStatsUseCase
}

func NewTeamHandler(stats TeamStatsUseCase) *TeamHandler {
	return &TeamHandler{stats: stats}
}

func (h *TeamHandler) Stats(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "TeamStats")

	identity, ok := caller(c)
	if !ok {
		return
	}
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.stats.TeamStats(ctx, identity, teamID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
