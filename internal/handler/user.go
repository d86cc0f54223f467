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

// UserUseCase is implemented by *service.UserService.
type UserUseCase interface {
	GetByID(ctx context.Context, caller ctxutil.Identity, id uint) (*dto.UserResponse, error)
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	UpdatePassword(ctx context.Context, caller ctxutil.Identity, targetID uint, req dto.UpdatePasswordRequest) error
}

type UserHandler struct {
	userService UserUseCase
}

func NewUserHandler(service UserUseCase) *UserHandler {
	return &UserHandler{userService: service}
}

func (h *UserHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetByID")

	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(ctx, identity, id)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser is mounted behind RequireRole(admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CreateUser")

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid request body for user creation").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	user, err := h.userService.CreateUser(ctx, req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("target_user_id", user.ID).
		String("role", user.Role).
		Log()

	c.JSON(http.StatusCreated, user)
}

// UpdatePassword lets users change their own password; admins may reset
// anyone's without the current one.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdatePassword")

	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid request body for password update").
			Uint("target_user_id", id).
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.userService.UpdatePassword(ctx, identity, id, req); err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordUpdated))
}
