package service

import (
	"fmt"
	"time"

	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	apperrors "github.com/teamtime/clockwork/internal/errors"
	"github.com/teamtime/clockwork/internal/model"
)

const millisPerHour = 3_600_000

// DateRange is an inclusive timestamp window. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
	// raw query values, echoed back as the response period
	start string
	end   string
}

func (r DateRange) Period() dto.Period {
	var p dto.Period
	if r.start != "" {
		s := r.start
		p.StartDate = &s
	}
	if r.end != "" {
		e := r.end
		p.EndDate = &e
	}
	return p
}

// ParseDateRange accepts YYYY-MM-DD or RFC 3339 for either bound. A date-only
// end bound covers that whole day.
func ParseDateRange(start, end string) (DateRange, error) {
	r := DateRange{start: start, end: end}

	if start != "" {
		t, _, err := parseQueryTime(start)
		if err != nil {
			return r, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid start_date %q", start))
		}
		r.From = &t
	}
	if end != "" {
		t, dateOnly, err := parseQueryTime(end)
		if err != nil {
			return r, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid end_date %q", end))
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return r, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date must not be after end_date")
	}
	return r, nil
}

func parseQueryTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(constants.TimeFormatDateOnly, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(constants.TimeFormatISO8601, v)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}

// HoursBetween converts a session to hours. Sessions that do not move
// forward in time are worth nothing.
func HoursBetween(arrival, departure time.Time) float64 {
	if !departure.After(arrival) {
		return 0
	}
	return float64(departure.Sub(arrival).Milliseconds()) / millisPerHour
}

// SummarizeUser pairs the i-th arrival with the i-th departure of one user's
// chronologically ordered recordings. Unmatched events are ignored.
func SummarizeUser(userID uint, recs []model.TimeRecording) dto.UserStatistics {
	var arrivals, departures []time.Time
	for _, r := range recs {
		switch r.Type {
		case constants.RecordingArrival:
			arrivals = append(arrivals, r.Timestamp)
		case constants.RecordingDeparture:
			departures = append(departures, r.Timestamp)
		}
	}

	n := len(arrivals)
	if len(departures) < n {
		n = len(departures)
	}

	stats := dto.UserStatistics{UserID: userID}
	days := make(map[string]struct{})
	for i := 0; i < n; i++ {
		if !departures[i].After(arrivals[i]) {
			continue
		}
		stats.TotalHours += HoursBetween(arrivals[i], departures[i])
		days[arrivals[i].UTC().Format(constants.TimeFormatDateOnly)] = struct{}{}
	}

	stats.TotalDays = len(days)
	if stats.TotalDays > 0 {
		stats.AverageHoursPerDay = stats.TotalHours / float64(stats.TotalDays)
	}
	return stats
}

// SummarizeByUser groups recordings by owner and summarizes each group in
// order of first appearance. Input is expected ordered by owner, then time.
func SummarizeByUser(recs []model.TimeRecording) []dto.UserStatistics {
	order := []uint{}
	groups := make(map[uint][]model.TimeRecording)
	for _, r := range recs {
		if _, ok := groups[r.UserID]; !ok {
			order = append(order, r.UserID)
		}
		groups[r.UserID] = append(groups[r.UserID], r)
	}

	out := make([]dto.UserStatistics, 0, len(order))
	for _, id := range order {
		out = append(out, SummarizeUser(id, groups[id]))
	}
	return out
}

// AggregateTeam weights every member equally: the hours-per-day figure is
// the mean of the members' own averages.
func AggregateTeam(members []dto.UserStatistics) dto.TeamAggregate {
	agg := dto.TeamAggregate{MemberCount: len(members)}
	if len(members) == 0 {
		return agg
	}

	var days int
	var avgSum float64
	for _, m := range members {
		agg.TotalHours += m.TotalHours
		days += m.TotalDays
		avgSum += m.AverageHoursPerDay
	}
	agg.AverageDaysWorked = float64(days) / float64(len(members))
	agg.AverageHoursPerDay = avgSum / float64(len(members))
	return agg
}
