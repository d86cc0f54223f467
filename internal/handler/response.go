package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	apperrors "github.com/teamtime/clockwork/internal/errors"
	"github.com/teamtime/clockwork/internal/middleware"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
)

// respondError renders a domain error as {"message": ...}. Internal causes
// are logged and never sent to the client.
func respondError(ctx context.Context, c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithContext(ctx, "Request failed").
			Int("http_status", status).
			Err(err).
			Log()
	}
	c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid "+param, nil))
		return 0, false
	}
	return uint(id), true
}

// caller reads the identity set by the JWT middleware. Routes behind
// RequireAuth always have one; the 401 guards misconfigured routes.
func caller(c *gin.Context) (ctxutil.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
	}
	return identity, ok
}
