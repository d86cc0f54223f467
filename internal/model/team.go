package model

import (
	"time"

	"gorm.io/datatypes"
)

type Team struct {
	ID          uint         `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;not null"`
	ManagerID   uint         `gorm:"column:id_manager;not null;index"`
	TimetableID *uint        `gorm:"column:id_timetable"`
	Timetable   *Timetable   `gorm:"foreignKey:TimetableID"`
	Members     []TeamMember `gorm:"foreignKey:TeamID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TeamMember struct {
	TeamID uint `gorm:"column:id_team;primaryKey"`
	UserID uint `gorm:"column:id_user;primaryKey;index"`
}

// Timetable describes a team's weekly shifts. Schedule is free-form JSON,
// e.g. {"monday":[{"start":"09:00","end":"17:00"}]}.
type Timetable struct {
	ID        uint           `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Schedule  datatypes.JSON `gorm:"column:schedule"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
