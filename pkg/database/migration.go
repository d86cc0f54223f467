package database

import (
	"github.com/teamtime/clockwork/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Timetable{},
		&model.Team{},
		&model.TeamMember{},
		&model.TimeRecording{},
	)
}
