package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

type TimeRecordingStore interface {
	GetByID(ctx context.Context, id uint) (*model.TimeRecording, error)
	List(ctx context.Context, filter repository.TimeRecordingFilter) ([]model.TimeRecording, error)
	CreateChecked(ctx context.Context, rec *model.TimeRecording, check repository.NeighborCheck) error
	UpdateChecked(ctx context.Context, rec *model.TimeRecording, previousOwner uint, check repository.NeighborCheck) error
	Delete(ctx context.Context, id uint) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	ListByIDs(ctx context.Context, ids []uint) ([]model.User, error)
}

// StatsInvalidator is told whenever recordings change.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

type TimeRecordingService struct {
	recordings TimeRecordingStore
	users      UserLookup
	members    policy.MembershipLookup
	stats      StatsInvalidator
}

func NewTimeRecordingService(recordings TimeRecordingStore, users UserLookup, members policy.MembershipLookup, stats StatsInvalidator) *TimeRecordingService {
	return &TimeRecordingService{
		recordings: recordings,
		users:      users,
		members:    members,
		stats:      stats,
	}
}

// Create clocks an event. The target defaults to the caller.
func (s *TimeRecordingService) Create(ctx context.Context, caller ctxutil.Identity, req dto.CreateTimeRecordingRequest) (*dto.TimeRecordingResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateTimeRecording")

	if req.Timestamp == nil || !validType(req.Type) {
		return nil, apperrors.ErrInvalidInput
	}

	target := caller.ID
	if req.UserID != nil {
		target = *req.UserID
	}

	if err := s.authorize(ctx, caller, policy.TimeRecordingOf(target), policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, target); err != nil {
		return nil, err
	}

	rec := &model.TimeRecording{
		Timestamp: req.Timestamp.UTC(),
		Type:      req.Type,
		UserID:    target,
	}
	if err := s.recordings.CreateChecked(ctx, rec, createCheck(rec.Type)); err != nil {
		return nil, s.writeError(ctx, err)
	}

	s.stats.InvalidateStats(ctx)

	resp := toRecordingResponse(rec)
	return &resp, nil
}

// Update changes any of timestamp, type and owner. Alternation is checked at
// the record's resulting position whenever one of them actually changes.
func (s *TimeRecordingService) Update(ctx context.Context, caller ctxutil.Identity, id uint, req dto.UpdateTimeRecordingRequest) (*dto.TimeRecordingResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateTimeRecording")

	if req.Timestamp == nil && req.Type == nil && req.UserID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Nothing to update")
	}
	if req.Type != nil && !validType(*req.Type) {
		return nil, apperrors.ErrInvalidInput
	}

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, caller, policy.TimeRecordingOf(rec.UserID), policy.ActionUpdate); err != nil {
		return nil, err
	}

	previousOwner := rec.UserID
	changed := false
	if req.UserID != nil && *req.UserID != rec.UserID {
		if err := s.authorize(ctx, caller, policy.TimeRecordingOf(*req.UserID), policy.ActionUpdate); err != nil {
			return nil, err
		}
		if err := s.ensureUser(ctx, *req.UserID); err != nil {
			return nil, err
		}
		rec.UserID = *req.UserID
		changed = true
	}
	if req.Type != nil && *req.Type != rec.Type {
		rec.Type = *req.Type
		changed = true
	}
	if req.Timestamp != nil && !req.Timestamp.Equal(rec.Timestamp) {
		rec.Timestamp = req.Timestamp.UTC()
		changed = true
	}

	var check repository.NeighborCheck
	if changed {
		check = updateCheck(rec.Type)
	}
	if err := s.recordings.UpdateChecked(ctx, rec, previousOwner, check); err != nil {
		return nil, s.writeError(ctx, err)
	}

	if changed {
		s.stats.InvalidateStats(ctx)
	}

	resp := toRecordingResponse(rec)
	return &resp, nil
}

// Delete removes a recording without re-checking the owner's sequence.
func (s *TimeRecordingService) Delete(ctx context.Context, caller ctxutil.Identity, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "service", "DeleteTimeRecording")

	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, caller, policy.TimeRecordingOf(rec.UserID), policy.ActionDelete); err != nil {
		return err
	}

	if err := s.recordings.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRecordingNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.stats.InvalidateStats(ctx)
	return nil
}

func (s *TimeRecordingService) Get(ctx context.Context, caller ctxutil.Identity, id uint) (*dto.TimeRecordingResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GetTimeRecording")

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, caller, policy.TimeRecordingOf(rec.UserID), policy.ActionRead); err != nil {
		return nil, err
	}

	resp := toRecordingResponse(rec)
	return &resp, nil
}

// List returns the recordings the caller may see, narrowed by the query.
func (s *TimeRecordingService) List(ctx context.Context, caller ctxutil.Identity, query dto.TimeRecordingQuery) ([]dto.TimeRecordingResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ListTimeRecordings")

	if query.Type != "" && !validType(query.Type) {
		return nil, apperrors.ErrInvalidInput
	}
	period, err := ParseDateRange(query.StartDate, query.EndDate)
	if err != nil {
		return nil, err
	}

	ids, err := visibleScope(ctx, policy.For(caller, s.members), query.UserID)
	if err != nil {
		return nil, err
	}

	recs, err := s.recordings.List(ctx, repository.TimeRecordingFilter{
		UserIDs: ids,
		Type:    query.Type,
		From:    period.From,
		To:      period.To,
	})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	out := make([]dto.TimeRecordingResponse, 0, len(recs))
	for i := range recs {
		out = append(out, toRecordingResponse(&recs[i]))
	}
	return out, nil
}

func (s *TimeRecordingService) load(ctx context.Context, id uint) (*model.TimeRecording, error) {
	rec, err := s.recordings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecordingNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return rec, nil
}

func (s *TimeRecordingService) authorize(ctx context.Context, caller ctxutil.Identity, res policy.Resource, action policy.Action) error {
	ok, err := policy.For(caller, s.members).CanAccess(ctx, res, action)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !ok {
		logger.WarnWithContext(ctx, "Time recording access denied").
			String("role", caller.Role).
			Uint("target_user_id", res.OwnerID).
			String("action", string(action)).
			Log()
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *TimeRecordingService) ensureUser(ctx context.Context, id uint) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

func (s *TimeRecordingService) writeError(ctx context.Context, err error) error {
	if apperrors.IsDomainError(err) {
		return err
	}
	if errors.Is(err, repository.ErrOwnerNotFound) {
		return apperrors.ErrUserNotFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrRecordingNotFound
	}
	logger.ErrorWithContext(ctx, "Time recording write failed").
		Err(err).
		Log()
	return apperrors.WrapError(apperrors.ErrInternal, err)
}

// visibleScope resolves which users a read covers. nil means everyone.
func visibleScope(ctx context.Context, p policy.Policy, requested *uint) ([]uint, error) {
	visible, err := p.VisibleUserIDs(ctx)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if requested == nil {
		return visible, nil
	}
	if visible != nil && !containsID(visible, *requested) {
		return nil, apperrors.ErrForbidden
	}
	return []uint{*requested}, nil
}

func createCheck(typ string) repository.NeighborCheck {
	return func(prev, next *model.TimeRecording) error {
		if prev != nil && prev.Type == typ {
			return apperrors.WithMessage(apperrors.ErrAlternationViolation,
				fmt.Sprintf("Cannot clock %s twice without clocking %s first", strings.ToLower(typ), strings.ToLower(otherType(typ))))
		}
		if next != nil && next.Type == typ {
			return apperrors.WithMessage(apperrors.ErrAlternationViolation,
				fmt.Sprintf("Recording would create consecutive %s recordings", strings.ToLower(typ)))
		}
		return nil
	}
}

func updateCheck(typ string) repository.NeighborCheck {
	return func(prev, next *model.TimeRecording) error {
		if (prev != nil && prev.Type == typ) || (next != nil && next.Type == typ) {
			return apperrors.WithMessage(apperrors.ErrAlternationViolation,
				fmt.Sprintf("Update would create consecutive %s recordings", strings.ToLower(typ)))
		}
		return nil
	}
}

func validType(t string) bool {
	return t == constants.RecordingArrival || t == constants.RecordingDeparture
}

func otherType(t string) string {
	if t == constants.RecordingArrival {
		return constants.RecordingDeparture
	}
	return constants.RecordingArrival
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func toRecordingResponse(rec *model.TimeRecording) dto.TimeRecordingResponse {
	return dto.TimeRecordingResponse{
		ID:        rec.ID,
		Timestamp: rec.Timestamp,
		Type:      rec.Type,
		UserID:    rec.UserID,
	}
}
