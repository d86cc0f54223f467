package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	apperrors "github.com/teamtime/clockwork/internal/errors"
	"github.com/teamtime/clockwork/internal/model"
	"github.com/teamtime/clockwork/pkg/cache"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
)

func rec(userID uint, typ string, ts time.Time) model.TimeRecording {
	return model.TimeRecording{UserID: userID, Type: typ, Timestamp: ts}
}

func TestHoursBetween(t *testing.T) {
	tests := []struct {
		name      string
		arrival   time.Time
		departure time.Time
		want      float64
	}{
		{name: "eight hours", arrival: at("09:00"), departure: at("17:00"), want: 8},
		{name: "one millisecond", arrival: at("09:00"), departure: at("09:00").Add(time.Millisecond), want: 1.0 / 3_600_000},
		{name: "ninety minutes", arrival: at("09:00"), departure: at("10:30"), want: 1.5},
		{name: "same instant", arrival: at("09:00"), departure: at("09:00"), want: 0},
		{name: "backwards", arrival: at("17:00"), departure: at("09:00"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HoursBetween(tt.arrival, tt.departure); got != tt.want {
				t.Errorf("HoursBetween() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarizeUser(t *testing.T) {
	nextDay := func(hhmm string) time.Time { return at(hhmm).Add(24 * time.Hour) }

	tests := []struct {
		name      string
		recs      []model.TimeRecording
		wantHours float64
		wantDays  int
		wantAvg   float64
	}{
		{name: "no records"},
		{
			name: "two sessions same day",
			recs: []model.TimeRecording{
				rec(5, constants.RecordingArrival, at("08:00")),
				rec(5, constants.RecordingDeparture, at("12:00")),
				rec(5, constants.RecordingArrival, at("13:00")),
				rec(5, constants.RecordingDeparture, at("17:00")),
			},
			wantHours: 8, wantDays: 1, wantAvg: 8,
		},
		{
			name: "two days",
			recs: []model.TimeRecording{
				rec(5, constants.RecordingArrival, at("09:00")),
				rec(5, constants.RecordingDeparture, at("15:00")),
				rec(5, constants.RecordingArrival, nextDay("09:00")),
				rec(5, constants.RecordingDeparture, nextDay("11:00")),
			},
			wantHours: 8, wantDays: 2, wantAvg: 4,
		},
		{
			name: "unmatched arrival ignored",
			recs: []model.TimeRecording{
				rec(5, constants.RecordingArrival, at("09:00")),
				rec(5, constants.RecordingDeparture, at("10:00")),
				rec(5, constants.RecordingArrival, at("11:00")),
			},
			wantHours: 1, wantDays: 1, wantAvg: 1,
		},
		{
			name: "departure first pairs with later arrival and counts nothing",
			recs: []model.TimeRecording{
				rec(5, constants.RecordingDeparture, at("08:00")),
				rec(5, constants.RecordingArrival, at("09:00")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeUser(5, tt.recs)
			if got.TotalHours != tt.wantHours || got.TotalDays != tt.wantDays || got.AverageHoursPerDay != tt.wantAvg {
				t.Errorf("SummarizeUser() = %+v, want hours %v days %d avg %v", got, tt.wantHours, tt.wantDays, tt.wantAvg)
			}
		})
	}
}

func TestAggregateTeamAveragesMemberAverages(t *testing.T) {
	agg := AggregateTeam([]dto.UserStatistics{
		{UserID: 1, TotalHours: 16, TotalDays: 2, AverageHoursPerDay: 8},
		{UserID: 2, TotalHours: 4, TotalDays: 1, AverageHoursPerDay: 4},
		{UserID: 3},
	})

	if agg.MemberCount != 3 || agg.TotalHours != 20 || agg.AverageDaysWorked != 1 || agg.AverageHoursPerDay != 4 {
		t.Errorf("AggregateTeam() = %+v", agg)
	}
	if empty := AggregateTeam(nil); empty != (dto.TeamAggregate{}) {
		t.Errorf("AggregateTeam(nil) = %+v", empty)
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2025-03-10", "2025-03-10")
	if err != nil {
		t.Fatalf("ParseDateRange() error = %v", err)
	}
	if !r.From.Equal(at("00:00")) {
		t.Errorf("From = %v", r.From)
	}
	if want := at("00:00").Add(24*time.Hour - time.Nanosecond); !r.To.Equal(want) {
		t.Errorf("To = %v, want %v", r.To, want)
	}
	if p := r.Period(); p.StartDate == nil || *p.StartDate != "2025-03-10" {
		t.Errorf("Period() = %+v", p)
	}

	open, err := ParseDateRange("", "")
	if err != nil || open.From != nil || open.To != nil {
		t.Errorf("open range = %+v, %v", open, err)
	}
	if p := open.Period(); p.StartDate != nil || p.EndDate != nil {
		t.Errorf("open Period() = %+v", p)
	}

	for _, bad := range [][2]string{{"yesterday", ""}, {"", "2025-13-01"}, {"2025-03-11", "2025-03-10"}} {
		if _, err := ParseDateRange(bad[0], bad[1]); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("ParseDateRange(%q, %q) error = %v, want ErrInvalidInput", bad[0], bad[1], err)
		}
	}
}

type statsFixture struct {
	stats      *StatsService
	recordings *TimeRecordingService
	store      *memRecordings
	teams      *memTeams
}

func newStatsFixture() *statsFixture {
	users := newMemUsers()
	for _, id := range []ctxutil.Identity{admin, manager, employeeA, employeeB, outsider} {
		users.add(model.User{Model: modelWithID(id.ID), Name: "N" + id.Email, Email: id.Email, Role: id.Role})
	}
	teams := newMemTeams()
	teams.addTeam(10, manager.ID, employeeA.ID, employeeB.ID)
	teams.addTeam(11, 99)

	store := newMemRecordings()
	local := cache.NewCache()
	cacheSvc := NewCacheService(nil, local, nil, time.Minute)

	return &statsFixture{
		stats:      NewStatsService(store, users, teams, teams, cacheSvc),
		recordings: NewTimeRecordingService(store, users, teams, cacheSvc),
		store:      store,
		teams:      teams,
	}
}

func (f *statsFixture) session(t *testing.T, userID uint, from, to string) {
	t.Helper()
	for _, ev := range []struct{ typ, hhmm string }{{constants.RecordingArrival, from}, {constants.RecordingDeparture, to}} {
		_, err := f.recordings.Create(context.Background(), admin, dto.CreateTimeRecordingRequest{
			Timestamp: ptr(at(ev.hhmm)),
			Type:      ev.typ,
			UserID:    ptr(userID),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
}

func TestTeamStatsTwoMembers(t *testing.T) {
	f := newStatsFixture()
	f.session(t, employeeA.ID, "09:00", "17:00")
	f.session(t, employeeB.ID, "09:00", "17:00")

	resp, err := f.stats.TeamStats(context.Background(), manager, 10, "", "")
	if err != nil {
		t.Fatalf("TeamStats() error = %v", err)
	}

	agg := resp.Aggregated
	if agg.MemberCount != 2 || agg.TotalHours != 16 || agg.AverageDaysWorked != 1 || agg.AverageHoursPerDay != 8 {
		t.Errorf("aggregated = %+v", agg)
	}
	if resp.Team.ID != 10 || resp.Team.ManagerID != manager.ID {
		t.Errorf("team = %+v", resp.Team)
	}
	if len(resp.Statistics) != 2 || resp.Statistics[0].Name == "" {
		t.Errorf("statistics = %+v", resp.Statistics)
	}
}

func TestTeamStatsIncludesIdleMembers(t *testing.T) {
	f := newStatsFixture()
	f.session(t, employeeA.ID, "09:00", "17:00")

	resp, err := f.stats.TeamStats(context.Background(), admin, 10, "", "")
	if err != nil {
		t.Fatalf("TeamStats() error = %v", err)
	}
	if len(resp.Statistics) != 2 {
		t.Fatalf("got %d member rows, want 2", len(resp.Statistics))
	}
	if resp.Aggregated.AverageHoursPerDay != 4 || resp.Aggregated.AverageDaysWorked != 0.5 {
		t.Errorf("aggregated = %+v", resp.Aggregated)
	}

	empty, err := f.stats.TeamStats(context.Background(), admin, 11, "", "")
	if err != nil {
		t.Fatalf("TeamStats(empty team) error = %v", err)
	}
	if empty.Aggregated.MemberCount != 0 || len(empty.Statistics) != 0 {
		t.Errorf("empty team = %+v", empty)
	}
}

func TestTeamStatsAuthorization(t *testing.T) {
	f := newStatsFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		caller ctxutil.Identity
		team   uint
		want   error
	}{
		{name: "employee", caller: employeeA, team: 10, want: apperrors.ErrForbidden},
		{name: "manager of other team", caller: manager, team: 11, want: apperrors.ErrForbidden},
		{name: "missing team", caller: admin, team: 404, want: apperrors.ErrTeamNotFound},
		{name: "admin", caller: admin, team: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.stats.TeamStats(ctx, tt.caller, tt.team, "", "")
			if tt.want == nil {
				if err != nil {
					t.Errorf("TeamStats() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("TeamStats() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUserStats(t *testing.T) {
	f := newStatsFixture()
	f.session(t, employeeA.ID, "09:00", "12:00")
	f.session(t, outsider.ID, "10:00", "11:00")
	ctx := context.Background()

	resp, err := f.stats.UserStats(ctx, employeeA, dto.TimeRecordingQuery{})
	if err != nil {
		t.Fatalf("UserStats() error = %v", err)
	}
	if len(resp.Statistics) != 1 || resp.Statistics[0].UserID != employeeA.ID || resp.Statistics[0].TotalHours != 3 {
		t.Errorf("employee statistics = %+v", resp.Statistics)
	}

	all, err := f.stats.UserStats(ctx, admin, dto.TimeRecordingQuery{})
	if err != nil {
		t.Fatalf("UserStats(admin) error = %v", err)
	}
	if len(all.Statistics) != 2 {
		t.Errorf("admin sees %d users, want 2", len(all.Statistics))
	}

	idle, err := f.stats.UserStats(ctx, admin, dto.TimeRecordingQuery{UserID: ptr(employeeB.ID)})
	if err != nil {
		t.Fatalf("UserStats(idle) error = %v", err)
	}
	if len(idle.Statistics) != 1 || idle.Statistics[0].TotalHours != 0 {
		t.Errorf("idle statistics = %+v", idle.Statistics)
	}

	if _, err := f.stats.UserStats(ctx, employeeA, dto.TimeRecordingQuery{UserID: ptr(outsider.ID)}); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("cross-user stats error = %v, want ErrForbidden", err)
	}
}

func TestStatsCacheInvalidatedByWrites(t *testing.T) {
	f := newStatsFixture()
	f.session(t, employeeA.ID, "09:00", "12:00")
	ctx := context.Background()

	first, _ := f.stats.UserStats(ctx, employeeA, dto.TimeRecordingQuery{})
	calls := f.store.listCalls
	cached, _ := f.stats.UserStats(ctx, employeeA, dto.TimeRecordingQuery{})
	if f.store.listCalls != calls {
		t.Error("second identical request hit the store")
	}
	if cached.Statistics[0].TotalHours != first.Statistics[0].TotalHours {
		t.Errorf("cached = %+v, first = %+v", cached, first)
	}

	f.session(t, employeeA.ID, "13:00", "14:00")
	fresh, _ := f.stats.UserStats(ctx, employeeA, dto.TimeRecordingQuery{})
	if fresh.Statistics[0].TotalHours != 4 {
		t.Errorf("stale statistics after write: %+v", fresh.Statistics)
	}
}
