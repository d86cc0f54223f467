package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	apperrors "github.com/teamtime/clockwork/internal/errors"
	"github.com/teamtime/clockwork/internal/middleware"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"go.uber.org/zap"
)

// AuthUseCase is implemented by *service.AuthService.
type AuthUseCase interface {
	Login(ctx context.Context, email, password string) (*dto.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
	Me(ctx context.Context, userID uint) (*dto.MeResponse, error)
}

// CookieOptions describes the refresh token cookie.
type CookieOptions struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge int
}

type AuthHandler struct {
	auth   AuthUseCase
	cookie CookieOptions
}

func NewAuthHandler(auth AuthUseCase, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		cookie: cookie,
	}
}

// Login answers with the access token in the body and the refresh token in
// an httpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		middleware.RecordAuthEvent("login", "invalid")
		respondError(ctx, c, apperrors.ErrMissingLogin)
		return
	}

	pair, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		middleware.RecordAuthEvent("login", "failure")
		respondError(ctx, c, err)
		return
	}

	middleware.RecordAuthEvent("login", "success")
	logger.LogAuth(pair.UserID, "login", true, zap.String("request_id", ctxutil.GetRequestID(ctx)))

	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, dto.AccessTokenResponse{AccessToken: pair.AccessToken})
}

// Refresh rotates the refresh cookie. A replayed token revokes the whole
// family and the cookie is dropped.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Refresh")

	token, _ := c.Cookie(h.cookie.Name)

	pair, err := h.auth.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenReuse) {
			middleware.RecordRefreshReuse()
			h.clearRefreshCookie(c)
		}
		middleware.RecordAuthEvent("refresh", "failure")
		respondError(ctx, c, err)
		return
	}

	middleware.RecordAuthEvent("refresh", "success")
	logger.LogAuth(pair.UserID, "refresh", true, zap.String("request_id", ctxutil.GetRequestID(ctx)))
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, dto.AccessTokenResponse{AccessToken: pair.AccessToken})
}

// Logout always succeeds and always clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	token, _ := c.Cookie(h.cookie.Name)
	h.auth.Logout(ctx, token)

	middleware.RecordAuthEvent("logout", "success")
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLogoutSuccess))
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")

	identity, ok := caller(c)
	if !ok {
		return
	}

	me, err := h.auth.Me(ctx, identity.ID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, h.cookie.MaxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}
