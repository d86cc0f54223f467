package repository

import (
	"context"
	"time"

	"github.com/teamtime/clockwork/internal/model"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"gorm.io/gorm"
)

// TeamRepository reads teams and memberships. Teams are managed elsewhere;
// this service only consumes them.
type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetByID loads a team with its timetable.
func (r *TeamRepository) GetByID(ctx context.Context, id uint) (*model.Team, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TeamGetByID")

	var team model.Team
	if err := r.db.WithContext(ctx).Preload("Timetable").Where("id = ?", id).First(&team).Error; err != nil {
		logger.DebugWithContext(ctx, "Team lookup failed").
			Uint("team_id", id).
			Err(err).
			Log()
		return nil, err
	}
	return &team, nil
}

// MemberIDs lists the user ids belonging to a team.
func (r *TeamRepository) MemberIDs(ctx context.Context, teamID uint) ([]uint, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TeamMemberIDs")

	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Where("id_team = ?", teamID).
		Order("id_user ASC").
		Pluck("id_user", &ids).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list team members").
			Uint("team_id", teamID).
			Err(err).
			Log()
		return nil, err
	}
	return ids, nil
}

// IsManagedMember reports whether userID belongs to any team owned by managerID.
func (r *TeamRepository) IsManagedMember(ctx context.Context, managerID, userID uint) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "IsManagedMember")

	start := time.Now()
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Joins("JOIN teams ON teams.id = team_members.id_team").
		Where("teams.id_manager = ? AND team_members.id_user = ?", managerID, userID).
		Count(&count).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to check team membership").
			Uint("manager_id", managerID).
			Uint("target_user_id", userID).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return false, err
	}
	return count > 0, nil
}

// ManagedMemberIDs lists the distinct members of every team owned by managerID.
func (r *TeamRepository) ManagedMemberIDs(ctx context.Context, managerID uint) ([]uint, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ManagedMemberIDs")

	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Distinct("team_members.id_user").
		Joins("JOIN teams ON teams.id = team_members.id_team").
		Where("teams.id_manager = ?", managerID).
		Order("team_members.id_user ASC").
		Pluck("team_members.id_user", &ids).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list managed members").
			Uint("manager_id", managerID).
			Err(err).
			Log()
		return nil, err
	}
	return ids, nil
}
