package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/teamtime/clockwork/internal/dto"
	apperrors "github.com/teamtime/clockwork/internal/errors"
	"github.com/teamtime/clockwork/internal/model"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"github.com/teamtime/clockwork/pkg/security"
	"gorm.io/gorm"
)

// SessionStore persists users and the single refresh session each one holds.
type SessionStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	StartSession(ctx context.Context, id uint, tokenHash, family string) error
	RotateSession(ctx context.Context, id uint, family, oldHash, newHash string) (bool, error)
	ClearSession(ctx context.Context, id uint) error
}

type AuthService struct {
	users  SessionStore
	tokens *TokenService
	hasher *security.PasswordHasher
}

func NewAuthService(users SessionStore, tokens *TokenService, hasher *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
}

// Login verifies credentials and starts a new refresh family, replacing any
// session the user already had.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.TokenPair, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Login")

	if email == "" || password == "" {
		return nil, apperrors.ErrMissingLogin
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.BurnCompare(password)
			logger.WarnWithContext(ctx, "Login for unknown email").
				Log()
			return nil, apperrors.ErrInvalidCredentials
		}
		logger.ErrorWithContext(ctx, "Failed to load user for login").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !s.hasher.Matches(user.Password, password) {
		logger.WarnWithContext(ctx, "Login with wrong password").
			Uint("target_user_id", user.ID).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	family := uuid.NewString()
	pair, jti, err := s.issue(user, family)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign tokens").
			Uint("target_user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.StartSession(ctx, user.ID, security.HashTokenID(jti), family); err != nil {
		logger.ErrorWithContext(ctx, "Failed to persist refresh session").
			Uint("target_user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User logged in").
		Uint("target_user_id", user.ID).
		String("role", user.Role).
		Log()

	return pair, nil
}

// Refresh exchanges a refresh token for a new pair within the same family.
// Presenting anything but the latest token of the family destroys the session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Refresh")

	if refreshToken == "" {
		return nil, apperrors.ErrNoRefreshToken
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Refresh token failed verification").
			Err(err).
			Log()
		return nil, apperrors.ErrInvalidRefreshToken
	}

	// always read the stored session fresh
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTokenRevoked
		}
		logger.ErrorWithContext(ctx, "Failed to load user for refresh").
			Uint("target_user_id", claims.UserID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.HasSession() {
		logger.InfoWithContext(ctx, "Refresh against revoked session").
			Uint("target_user_id", user.ID).
			Log()
		return nil, apperrors.ErrTokenRevoked
	}

	if user.RefreshTokenFamily == nil || *user.RefreshTokenFamily != claims.Family {
		return nil, s.reuseDetected(ctx, user.ID, "family_mismatch")
	}

	storedHash := *user.RefreshTokenHash
	if !security.TokenIDMatches(claims.ID, storedHash) {
		return nil, s.reuseDetected(ctx, user.ID, "jti_mismatch")
	}

	pair, jti, err := s.issue(user, claims.Family)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign tokens").
			Uint("target_user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	rotated, err := s.users.RotateSession(ctx, user.ID, claims.Family, storedHash, security.HashTokenID(jti))
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !rotated {
		// a concurrent refresh consumed the same token first
		return nil, s.reuseDetected(ctx, user.ID, "lost_rotation_race")
	}

	logger.InfoWithContext(ctx, "Refresh token rotated").
		Uint("target_user_id", user.ID).
		Log()

	return pair, nil
}

// Logout clears the session of whoever the token names. It never fails from
// the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	ctx = ctxutil.WithFunction(ctx, "service", "Logout")

	if refreshToken == "" {
		return
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		logger.DebugWithContext(ctx, "Logout with unverifiable refresh token").
			Err(err).
			Log()
		return
	}

	if err := s.users.ClearSession(ctx, claims.UserID); err != nil {
		logger.WarnWithContext(ctx, "Failed to clear session on logout").
			Uint("target_user_id", claims.UserID).
			Err(err).
			Log()
		return
	}

	logger.InfoWithContext(ctx, "User logged out").
		Uint("target_user_id", claims.UserID).
		Log()
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID uint) (*dto.MeResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Me")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.MeResponse{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Surname:      user.Surname,
		Role:         user.Role,
		MobileNumber: user.MobileNumber,
	}, nil
}

func (s *AuthService) issue(user *model.User, family string) (*dto.TokenPair, string, error) {
	access, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	refresh, jti, err := s.tokens.GenerateRefreshToken(user, family)
	if err != nil {
		return nil, "", err
	}
	return &dto.TokenPair{UserID: user.ID, AccessToken: access, RefreshToken: refresh}, jti, nil
}

func (s *AuthService) reuseDetected(ctx context.Context, userID uint, reason string) error {
	logger.WarnWithContext(ctx, "Refresh token reuse detected, revoking session").
		Uint("target_user_id", userID).
		String("reason", reason).
		Bool("security_incident", true).
		Log()

	if err := s.users.ClearSession(ctx, userID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke session after reuse").
			Uint("target_user_id", userID).
			Err(err).
			Log()
	}
	return apperrors.ErrTokenReuse
}
