package dto

import "encoding/json"

type UserStatistics struct {
	UserID             uint    `json:"id_user"`
	Name               string  `json:"name,omitempty"`
	Surname            string  `json:"surname,omitempty"`
	TotalHours         float64 `json:"totalHours"`
	TotalDays          int     `json:"totalDays"`
	AverageHoursPerDay float64 `json:"averageHoursPerDay"`
}

// Period echoes the requested range; nil bounds are open.
type Period struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type UserStatsResponse struct {
	Statistics []UserStatistics `json:"statistics"`
	Period     Period           `json:"period"`
}

type TimetableResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Schedule json.RawMessage `json:"schedule,omitempty"`
}

type TeamSummary struct {
	ID        uint               `json:"id"`
	Name      string             `json:"name"`
	ManagerID uint               `json:"id_manager"`
	Timetable *TimetableResponse `json:"timetable,omitempty"`
}

type TeamAggregate struct {
	MemberCount        int     `json:"memberCount"`
	TotalHours         float64 `json:"totalHours"`
	AverageDaysWorked  float64 `json:"averageDaysWorked"`
	AverageHoursPerDay float64 `json:"averageHoursPerDay"`
}

type TeamStatsResponse struct {
	Team       TeamSummary      `json:"team"`
	Statistics []UserStatistics `json:"statistics"`
	Aggregated TeamAggregate    `json:"aggregated"`
	Period     Period           `json:"period"`
}
