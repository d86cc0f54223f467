package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	apperrors "github.com/teamtime/clockwork/internal/errors"
	"github.com/teamtime/clockwork/internal/model"
	"github.com/teamtime/clockwork/internal/policy"
	"github.com/teamtime/clockwork/internal/repository"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"gorm.io/gorm"
)

type RecordingLister interface {
	List(ctx context.Context, filter repository.TimeRecordingFilter) ([]model.TimeRecording, error)
}

type TeamLookup interface {
	GetByID(ctx context.Context, id uint) (*model.Team, error)
	MemberIDs(ctx context.Context, teamID uint) ([]uint, error)
}

// StatsCache is satisfied by CacheService.
type StatsCache interface {
	KeyFor(prefix string, userIDs []uint, r DateRange) string
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
}

type StatsService struct {
	recordings RecordingLister
	users      UserLookup
	teams      TeamLookup
	members    policy.MembershipLookup
	cache      StatsCache
}

func NewStatsService(recordings RecordingLister, users UserLookup, teams TeamLookup, members policy.MembershipLookup, cache StatsCache) *StatsService {
	return &StatsService{
		recordings: recordings,
		users:      users,
		teams:      teams,
		members:    members,
		cache:      cache,
	}
}

// UserStats summarizes hours per visible user. An explicitly requested user
// with no sessions still gets a zero row.
func (s *StatsService) UserStats(ctx context.Context, caller ctxutil.Identity, query dto.TimeRecordingQuery) (*dto.UserStatsResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserStats")

	period, err := ParseDateRange(query.StartDate, query.EndDate)
	if err != nil {
		return nil, err
	}
	ids, err := visibleScope(ctx, policy.For(caller, s.members), query.UserID)
	if err != nil {
		return nil, err
	}

	key := s.cache.KeyFor(constants.CacheKeyUserStats, ids, period)
	var cached dto.UserStatsResponse
	if s.cache.Get(ctx, key, &cached) {
		logger.DebugWithContext(ctx, "User statistics served from cache").
			String("cache_key", key).
			Log()
		return &cached, nil
	}

	recs, err := s.recordings.List(ctx, repository.TimeRecordingFilter{UserIDs: ids, From: period.From, To: period.To})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	stats := SummarizeByUser(recs)
	if query.UserID != nil && len(stats) == 0 {
		stats = append(stats, dto.UserStatistics{UserID: *query.UserID})
	}
	if err := s.attachNames(ctx, stats); err != nil {
		return nil, err
	}

	resp := &dto.UserStatsResponse{Statistics: stats, Period: period.Period()}
	s.cache.Set(ctx, key, resp)
	return resp, nil
}

// TeamStats summarizes every current member of a team, including members
// who never clocked in.
func (s *StatsService) TeamStats(ctx context.Context, caller ctxutil.Identity, teamID uint, startDate, endDate string) (*dto.TeamStatsResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "TeamStats")

	period, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	ok, err := policy.For(caller, s.members).CanAccess(ctx, policy.TeamManagedBy(team.ManagerID), policy.ActionViewStats)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !ok {
		logger.WarnWithContext(ctx, "Team statistics access denied").
			Uint("team_id", teamID).
			String("role", caller.Role).
			Log()
		return nil, apperrors.ErrForbidden
	}

	memberIDs, err := s.teams.MemberIDs(ctx, teamID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if memberIDs == nil {
		memberIDs = []uint{}
	}

	key := s.cache.KeyFor(fmt.Sprintf("%s%d:", constants.CacheKeyTeamStats, teamID), memberIDs, period)
	var cached dto.TeamStatsResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	recs, err := s.recordings.List(ctx, repository.TimeRecordingFilter{UserIDs: memberIDs, From: period.From, To: period.To})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	byUser := make(map[uint]dto.UserStatistics)
	for _, st := range SummarizeByUser(recs) {
		byUser[st.UserID] = st
	}
	stats := make([]dto.UserStatistics, 0, len(memberIDs))
	for _, id := range memberIDs {
		st, ok := byUser[id]
		if !ok {
			st = dto.UserStatistics{UserID: id}
		}
		stats = append(stats, st)
	}
	if err := s.attachNames(ctx, stats); err != nil {
		return nil, err
	}

	resp := &dto.TeamStatsResponse{
		Team:       toTeamSummary(team),
		Statistics: stats,
		Aggregated: AggregateTeam(stats),
		Period:     period.Period(),
	}
	s.cache.Set(ctx, key, resp)

	logger.InfoWithContext(ctx, "Team statistics computed").
		Uint("team_id", teamID).
		Int("member_count", len(memberIDs)).
		Float64("total_hours", resp.Aggregated.TotalHours).
		Log()

	return resp, nil
}

func (s *StatsService) attachNames(ctx context.Context, stats []dto.UserStatistics) error {
	if len(stats) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.UserID)
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	names := make(map[uint]model.User, len(users))
	for _, u := range users {
		names[u.ID] = u
	}
	for i := range stats {
		if u, ok := names[stats[i].UserID]; ok {
			stats[i].Name = u.Name
			stats[i].Surname = u.Surname
		}
	}
	return nil
}

func toTeamSummary(team *model.Team) dto.TeamSummary {
	summary := dto.TeamSummary{
		ID:        team.ID,
		Name:      team.Name,
		ManagerID: team.ManagerID,
	}
	if team.Timetable != nil {
		summary.Timetable = &dto.TimetableResponse{
			ID:       team.Timetable.ID,
			Name:     team.Timetable.Name,
			Schedule: []byte(team.Timetable.Schedule),
		}
	}
	return summary
}
