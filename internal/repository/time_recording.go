package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teamtime/clockwork/internal/model"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"github.com/teamtime/clockwork/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeRecordingFilter narrows List. A nil UserIDs means every user; an empty
// non-nil slice matches nothing.
type TimeRecordingFilter struct {
	UserIDs []uint
	Type    string
	From    *time.Time
	To      *time.Time
}

// ErrOwnerNotFound means a user row to lock for a write no longer exists.
var ErrOwnerNotFound = errors.New("time recording owner not found")

// NeighborCheck inspects the records immediately before and after a
// recording's position in its owner's timeline. Either may be nil.
type NeighborCheck func(prev, next *model.TimeRecording) error

type TimeRecordingRepository struct {
	db *gorm.DB
}

func NewTimeRecordingRepository(db *gorm.DB) *TimeRecordingRepository {
	return &TimeRecordingRepository{db: db}
}

func (r *TimeRecordingRepository) GetByID(ctx context.Context, id uint) (*model.TimeRecording, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TimeRecordingGetByID")

	var rec model.TimeRecording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		logger.DebugWithContext(ctx, "Time recording lookup failed").
			Uint("recording_id", id).
			Err(err).
			Log()
		return nil, err
	}
	return &rec, nil
}

// List returns matching recordings ordered by owner, then chronologically.
func (r *TimeRecordingRepository) List(ctx context.Context, filter TimeRecordingFilter) ([]model.TimeRecording, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TimeRecordingList")

	recs := []model.TimeRecording{}
	if filter.UserIDs != nil && len(filter.UserIDs) == 0 {
		return recs, nil
	}

	start := time.Now()
	query := r.db.WithContext(ctx).Model(&model.TimeRecording{})
	if filter.UserIDs != nil {
		query = query.Where("id_user IN ?", filter.UserIDs)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}

	if err := query.Order("id_user ASC, timestamp ASC, id ASC").Find(&recs).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to list time recordings").
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "Time recordings listed").
		Int("returned_count", len(recs)).
		Duration(time.Since(start)).
		Log()

	return recs, nil
}

// CreateChecked inserts rec after running check against its chronological
// neighbors. The owner's user row is locked for the duration so concurrent
// writes for the same user serialize.
func (r *TimeRecordingRepository) CreateChecked(ctx context.Context, rec *model.TimeRecording, check NeighborCheck) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "TimeRecordingCreateChecked")

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx, rec.UserID); err != nil {
			return err
		}

		prev, next, err := neighbors(tx, rec.UserID, rec.Timestamp, 0)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(prev, next); err != nil {
				return err
			}
		}

		return tx.Create(rec).Error
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Time recording not created").
			Uint("target_user_id", rec.UserID).
			String("type", rec.Type).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Time recording created").
		Uint("recording_id", rec.ID).
		Uint("target_user_id", rec.UserID).
		String("type", rec.Type).
		Duration(time.Since(start)).
		Log()

	return nil
}

// UpdateChecked saves rec (already carrying its new values) after running
// check against the neighbors at its new position, excluding rec itself.
// previousOwner is locked too when the record moves between users.
func (r *TimeRecordingRepository) UpdateChecked(ctx context.Context, rec *model.TimeRecording, previousOwner uint, check NeighborCheck) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "TimeRecordingUpdateChecked")

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx, rec.UserID, previousOwner); err != nil {
			return err
		}

		if check != nil {
			prev, next, err := neighbors(tx, rec.UserID, rec.Timestamp, rec.ID)
			if err != nil {
				return err
			}
			if err := check(prev, next); err != nil {
				return err
			}
		}

		result := tx.Model(&model.TimeRecording{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
			"timestamp": rec.Timestamp,
			"type":      rec.Type,
			"id_user":   rec.UserID,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Time recording not updated").
			Uint("recording_id", rec.ID).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Time recording updated").
		Uint("recording_id", rec.ID).
		Uint("target_user_id", rec.UserID).
		String("type", rec.Type).
		Duration(time.Since(start)).
		Log()

	return nil
}

func (r *TimeRecordingRepository) Delete(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "TimeRecordingDelete")

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TimeRecording{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete time recording").
			Uint("recording_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Time recording deleted").
		Uint("recording_id", id).
		Log()

	return nil
}

// lockUsers takes row locks in ascending id order to avoid lock-order
// deadlocks between two moves.
func lockUsers(tx *gorm.DB, ids ...uint) error {
	seen := make(map[uint]struct{}, len(ids))
	uniq := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	for _, id := range uniq {
		var u model.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", id).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lock user %d: %w", id, ErrOwnerNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock user %d: %w", id, err)
		}
	}
	return nil
}

// neighbors finds the records adjacent to position (ts, selfID) in userID's
// timeline, ordered by (timestamp, id). selfID 0 places a new record after
// any existing record with the same timestamp.
func neighbors(tx *gorm.DB, userID uint, ts time.Time, selfID uint) (*model.TimeRecording, *model.TimeRecording, error) {
	prevQ := tx.Where("id_user = ?", userID)
	nextQ := tx.Where("id_user = ?", userID)
	if selfID == 0 {
		prevQ = prevQ.Where("timestamp <= ?", ts)
		nextQ = nextQ.Where("timestamp > ?", ts)
	} else {
		prevQ = prevQ.Where("id <> ? AND (timestamp < ? OR (timestamp = ? AND id < ?))", selfID, ts, ts, selfID)
		nextQ = nextQ.Where("id <> ? AND (timestamp > ? OR (timestamp = ? AND id > ?))", selfID, ts, ts, selfID)
	}

	var prevs, nexts []model.TimeRecording
	if err := prevQ.Order("timestamp DESC, id DESC").Limit(1).Find(&prevs).Error; err != nil {
		return nil, nil, err
	}
	if err := nextQ.Order("timestamp ASC, id ASC").Limit(1).Find(&nexts).Error; err != nil {
		return nil, nil, err
	}

	var prev, next *model.TimeRecording
	if len(prevs) > 0 {
		prev = &prevs[0]
	}
	if len(nexts) > 0 {
		next = &nexts[0]
	}
	return prev, next, nil
}
