package repository

import (
	"context"
	"time"

	"github.com/teamtime/clockwork/internal/model"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserGetByID")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup by ID failed").
			Uint("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("target_user_id", id).
		Duration(duration).
		Log()

	return &user, nil
}

// GetByEmail is an exact, case-sensitive match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserGetByEmail")

	start := time.Now()
	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup by email failed").
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

// ListByIDs returns the users among ids that exist, ordered by id.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserListByIDs")

	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}

	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users by ids").
			Int("count", len(ids)).
			Err(err).
			Log()
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserCreate")

	start := time.Now()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User created").
		Uint("target_user_id", user.ID).
		String("role", user.Role).
		Duration(time.Since(start)).
		Log()

	return nil
}

// UpdatePassword stores a new hash and clears the refresh session in the
// same statement.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserUpdatePassword")

	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password":             hashedPassword,
		"refresh_token_hash":   nil,
		"refresh_token_family": nil,
	})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			Uint("target_user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// StartSession overwrites any existing refresh session with a new family.
func (r *UserRepository) StartSession(ctx context.Context, id uint, tokenHash, family string) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "StartSession")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"refresh_token_hash":   tokenHash,
		"refresh_token_family": family,
	})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to start refresh session").
			Uint("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.DebugWithContext(ctx, "Refresh session started").
		Uint("target_user_id", id).
		Duration(duration).
		Log()

	return nil
}

// RotateSession swaps the stored hash only if the row still holds
// (family, oldHash). It reports false when another request got there first.
func (r *UserRepository) RotateSession(ctx context.Context, id uint, family, oldHash, newHash string) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "RotateSession")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token_family = ? AND refresh_token_hash = ?", id, family, oldHash).
		Update("refresh_token_hash", newHash)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to rotate refresh session").
			Uint("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	logger.DebugWithContext(ctx, "Refresh session rotation attempted").
		Uint("target_user_id", id).
		Int64("rows_affected", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected == 1, nil
}

func (r *UserRepository) ClearSession(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "ClearSession")

	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"refresh_token_hash":   nil,
		"refresh_token_family": nil,
	})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to clear refresh session").
			Uint("target_user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Refresh session cleared").
		Uint("target_user_id", id).
		Int64("rows_affected", result.RowsAffected).
		Log()

	return nil
}
