package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
)

// TimeRecordingUseCase is implemented by *service.TimeRecordingService.
type TimeRecordingUseCase interface {
	Create(ctx context.Context, caller ctxutil.Identity, req dto.CreateTimeRecordingRequest) (*dto.TimeRecordingResponse, error)
	Update(ctx context.Context, caller ctxutil.Identity, id uint, req dto.UpdateTimeRecordingRequest) (*dto.TimeRecordingResponse, error)
	Delete(ctx context.Context, caller ctxutil.Identity, id uint) error
	Get(ctx context.Context, caller ctxutil.Identity, id uint) (*dto.TimeRecordingResponse, error)
	List(ctx context.Context, caller ctxutil.Identity, query dto.TimeRecordingQuery) ([]dto.TimeRecordingResponse, error)
}

// UserStatsUseCase is implemented by *service.StatsService.
type UserStatsUseCase interface {
	UserStats(ctx context.Context, caller ctxutil.Identity, query dto.TimeRecordingQuery) (*dto.UserStatsResponse, error)
}

type TimeRecordingHandler struct {
	recordings TimeRecordingUseCase
	stats      UserStatsUseCase
}

func NewTimeRecordingHandler(recordings TimeRecordingUseCase, stats UserStatsUseCase) *TimeRecordingHandler {
	return &TimeRecordingHandler{
		recordings: recordings,
		stats:      stats,
	}
}

func (h *TimeRecordingHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ListTimeRecordings")

	identity, ok := caller(c)
	if !ok {
		return
	}

	var query dto.TimeRecordingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.WarnWithContext(ctx, "Invalid time recording query").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, err.Error()))
		return
	}

	records, err := h.recordings.List(ctx, identity, query)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *TimeRecordingHandler) Get(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetTimeRecording")

	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	record, err := h.recordings.Get(ctx, identity, id)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Create expects the validation middleware to have stored the decoded body.
func (h *TimeRecordingHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CreateTimeRecording")

	identity, ok := caller(c)
	if !ok {
		return
	}
	req, ok := c.MustGet(constants.GinKeyPayload).(*dto.CreateTimeRecordingRequest)
	if !ok {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
		return
	}

	record, err := h.recordings.Create(ctx, identity, *req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "Time recording created").
		Uint("recording_id", record.ID).
		Uint("target_user_id", record.UserID).
		String("type", record.Type).
		Log()

	c.JSON(http.StatusCreated, record)
}

func (h *TimeRecordingHandler) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateTimeRecording")

	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, ok := c.MustGet(constants.GinKeyPayload).(*dto.UpdateTimeRecordingRequest)
	if !ok {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
		return
	}

	record, err := h.recordings.Update(ctx, identity, id, *req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *TimeRecordingHandler) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "DeleteTimeRecording")

	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.recordings.Delete(ctx, identity, id); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgRecordingDeleted))
}

func (h *TimeRecordingHandler) Stats(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UserStats")

	identity, ok := caller(c)
	if !ok {
		return
	}

	var query dto.TimeRecordingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, err.Error()))
		return
	}

	stats, err := h.stats.UserStats(ctx, identity, query)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
