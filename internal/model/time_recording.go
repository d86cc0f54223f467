package model

import "time"

type TimeRecording struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_time_recordings_user_ts,priority:2"`
	Type      string    `gorm:"column:type;not null"`
	UserID    uint      `gorm:"column:id_user;not null;index:idx_time_recordings_user_ts,priority:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
