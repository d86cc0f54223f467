package service

import (
	"context"
	"errors"

	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	apperrors "github.com/teamtime/clockwork/internal/errors"
	"github.com/teamtime/clockwork/internal/model"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"github.com/teamtime/clockwork/pkg/security"
	"gorm.io/gorm"
)

type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
}

type UserService struct {
	users  UserStore
	hasher *security.PasswordHasher
}

func NewUserService(users UserStore, hasher *security.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// GetByID lets admins read anyone and everyone else read themselves.
func (s *UserService) GetByID(ctx context.Context, caller ctxutil.Identity, id uint) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GetUserByID")

	if caller.Role != constants.RoleAdmin && caller.ID != id {
		return nil, apperrors.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			Uint("target_user_id", id).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateUser")

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		logger.InfoWithContext(ctx, "Email already registered").
			String("email", req.Email).
			Log()
		return nil, apperrors.ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if req.ManagerID != nil {
		if _, err := s.users.GetByID(ctx, *req.ManagerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "id_manager does not reference an existing user")
			}
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Name:         req.Name,
		Surname:      req.Surname,
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
		Password:     hashed,
		Role:         req.Role,
		ManagerID:    req.ManagerID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// UpdatePassword changes a password and ends the user's refresh session.
// Users changing their own password must prove the current one; an admin
// resetting someone else's does not.
func (s *UserService) UpdatePassword(ctx context.Context, caller ctxutil.Identity, targetID uint, req dto.UpdatePasswordRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdatePassword")

	self := caller.ID == targetID
	if !self && caller.Role != constants.RoleAdmin {
		return apperrors.ErrForbidden
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if self && (req.CurrentPassword == "" || !s.hasher.Matches(user.Password, req.CurrentPassword)) {
		logger.WarnWithContext(ctx, "Password change with wrong current password").
			Uint("target_user_id", targetID).
			Log()
		return apperrors.ErrIncorrectPassword
	}

	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, targetID, hashed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Password updated, refresh session cleared").
		Uint("target_user_id", targetID).
		Bool("admin_reset", !self).
		Log()

	return nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Surname:      u.Surname,
		Email:        u.Email,
		MobileNumber: u.MobileNumber,
		Role:         u.Role,
		ManagerID:    u.ManagerID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
