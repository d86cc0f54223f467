package dto

import "time"

type CreateTimeRecordingRequest struct {
	Timestamp *time.Time `json:"timestamp" binding:"required"`
	Type      string     `json:"type" binding:"required,oneof=Arrival Departure"`
	// UserID defaults to the caller when omitted.
	UserID *uint `json:"id_user" binding:"omitempty,gt=0"`
}

type UpdateTimeRecordingRequest struct {
	Timestamp *time.Time `json:"timestamp"`
	Type      *string    `json:"type" binding:"omitempty,oneof=Arrival Departure"`
	UserID    *uint      `json:"id_user" binding:"omitempty,gt=0"`
}

// TimeRecordingQuery is bound from the query string of list and stats endpoints.
type TimeRecordingQuery struct {
	UserID    *uint  `form:"id_user" binding:"omitempty,gt=0"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Type      string `form:"type" binding:"omitempty,oneof=Arrival Departure"`
}

type TimeRecordingResponse struct {
	ID        uint      `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	UserID    uint      `json:"id_user"`
}
