package database

import (
	"errors"

	"github.com/teamtime/clockwork/config"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/model"
	"github.com/teamtime/clockwork/pkg/logger"
	"github.com/teamtime/clockwork/pkg/security"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultAdmin builds the bootstrap admin from config.
func DefaultAdmin(cfg config.SeedConfig) model.User {
	return model.User{
		Name:    "Admin",
		Surname: "Clockwork",
		Email:   cfg.AdminEmail,
		Role:    constants.RoleAdmin,
	}
}

// Seed creates initial data for the database
func Seed(db *gorm.DB, cfg config.SeedConfig, hasher *security.PasswordHasher) error {
	if !cfg.Enabled {
		return nil
	}
	return SeedAdmin(db, cfg, hasher)
}

// SeedAdmin creates the default admin user if not exists
func SeedAdmin(db *gorm.DB, cfg config.SeedConfig, hasher *security.PasswordHasher) error {
	admin := DefaultAdmin(cfg)

	var existing model.User
	err := db.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin.Password = hashed

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("Default admin seeded",
		zap.Uint("user_id", admin.ID),
		zap.String("email", admin.Email),
	)
	return nil
}
