package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/teamtime/clockwork/internal/model"
	"github.com/teamtime/clockwork/internal/repository"
	"gorm.io/gorm"
)

// memUsers is an in-memory user table with the same session semantics as
// repository.UserRepository.
type memUsers struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]model.User

	// rotateHook, when set, replaces the compare-and-swap outcome.
	rotateHook func() bool
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1, rows: map[uint]model.User{}}
}

func (m *memUsers) add(u model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.nextID
	}
	if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
	m.rows[u.ID] = u
	return &u
}

func (m *memUsers) session(id uint) (hash, family *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.rows[id]
	return u.RefreshTokenHash, u.RefreshTokenFamily
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) ListByIDs(_ context.Context, ids []uint) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := m.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	created := m.add(*user)
	user.ID = created.ID
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint, hashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = hashed
	u.RefreshTokenHash = nil
	u.RefreshTokenFamily = nil
	m.rows[id] = u
	return nil
}

func (m *memUsers) StartSession(_ context.Context, id uint, hash, family string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.RefreshTokenHash = &hash
	u.RefreshTokenFamily = &family
	m.rows[id] = u
	return nil
}

func (m *memUsers) RotateSession(_ context.Context, id uint, family, oldHash, newHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rotateHook != nil {
		return m.rotateHook(), nil
	}
	u, ok := m.rows[id]
	if !ok || u.RefreshTokenHash == nil || u.RefreshTokenFamily == nil {
		return false, nil
	}
	if *u.RefreshTokenHash != oldHash || *u.RefreshTokenFamily != family {
		return false, nil
	}
	u.RefreshTokenHash = &newHash
	m.rows[id] = u
	return true, nil
}

func (m *memUsers) ClearSession(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.rows[id]; ok {
		u.RefreshTokenHash = nil
		u.RefreshTokenFamily = nil
		m.rows[id] = u
	}
	return nil
}

// memRecordings mirrors the repository's neighbor lookup. One mutex stands in
// for the per-user row lock.
type memRecordings struct {
	mu        sync.Mutex
	nextID    uint
	rows      map[uint]model.TimeRecording
	listCalls int
	// goneUsers were deleted after the service looked them up
	goneUsers map[uint]bool
}

func (m *memRecordings) lock(ids ...uint) error {
	for _, id := range ids {
		if m.goneUsers[id] {
			return fmt.Errorf("lock user %d: %w", id, repository.ErrOwnerNotFound)
		}
	}
	return nil
}

func newMemRecordings() *memRecordings {
	return &memRecordings{nextID: 1, rows: map[uint]model.TimeRecording{}}
}

func (m *memRecordings) GetByID(_ context.Context, id uint) (*model.TimeRecording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (m *memRecordings) List(_ context.Context, f repository.TimeRecordingFilter) ([]model.TimeRecording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++

	out := []model.TimeRecording{}
	if f.UserIDs != nil && len(f.UserIDs) == 0 {
		return out, nil
	}
	for _, r := range m.rows {
		if f.UserIDs != nil && !containsID(f.UserIDs, r.UserID) {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.From != nil && r.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && r.Timestamp.After(*f.To) {
			continue
		}
		out = append(out, r)
	}
	sortRecordings(out)
	return out, nil
}

func (m *memRecordings) CreateChecked(_ context.Context, rec *model.TimeRecording, check repository.NeighborCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.lock(rec.UserID); err != nil {
		return err
	}

	var prev, next *model.TimeRecording
	for _, r := range m.timeline(rec.UserID) {
		r := r
		if !r.Timestamp.After(rec.Timestamp) {
			prev = &r
		} else if next == nil {
			next = &r
		}
	}
	if check != nil {
		if err := check(prev, next); err != nil {
			return err
		}
	}

	rec.ID = m.nextID
	m.nextID++
	m.rows[rec.ID] = *rec
	return nil
}

func (m *memRecordings) UpdateChecked(_ context.Context, rec *model.TimeRecording, previousOwner uint, check repository.NeighborCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.lock(rec.UserID, previousOwner); err != nil {
		return err
	}

	if _, ok := m.rows[rec.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if check != nil {
		var prev, next *model.TimeRecording
		for _, r := range m.timeline(rec.UserID) {
			r := r
			if r.ID == rec.ID {
				continue
			}
			if before(r, *rec) {
				prev = &r
			} else if next == nil {
				next = &r
			}
		}
		if err := check(prev, next); err != nil {
			return err
		}
	}
	m.rows[rec.ID] = *rec
	return nil
}

func (m *memRecordings) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

// must hold lock
func (m *memRecordings) timeline(userID uint) []model.TimeRecording {
	var out []model.TimeRecording
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortRecordings(out)
	return out
}

func before(a, b model.TimeRecording) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}

func sortRecordings(recs []model.TimeRecording) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].UserID != recs[j].UserID {
			return recs[i].UserID < recs[j].UserID
		}
		return before(recs[i], recs[j])
	})
}

// memTeams serves both TeamLookup and policy.MembershipLookup.
type memTeams struct {
	teams   map[uint]model.Team
	members map[uint][]uint
}

func newMemTeams() *memTeams {
	return &memTeams{teams: map[uint]model.Team{}, members: map[uint][]uint{}}
}

func (m *memTeams) addTeam(id, managerID uint, members ...uint) {
	m.teams[id] = model.Team{ID: id, Name: "Team", ManagerID: managerID}
	m.members[id] = members
}

func (m *memTeams) GetByID(_ context.Context, id uint) (*model.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (m *memTeams) MemberIDs(_ context.Context, teamID uint) ([]uint, error) {
	return m.members[teamID], nil
}

func (m *memTeams) IsManagedMember(_ context.Context, managerID, userID uint) (bool, error) {
	for id, t := range m.teams {
		if t.ManagerID == managerID && containsID(m.members[id], userID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTeams) ManagedMemberIDs(_ context.Context, managerID uint) ([]uint, error) {
	var out []uint
	for id, t := range m.teams {
		if t.ManagerID != managerID {
			continue
		}
		for _, u := range m.members[id] {
			if !containsID(out, u) {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) InvalidateStats(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2025-03-10 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func modelWithID(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

func repositoryFilterFor(userID uint) repository.TimeRecordingFilter {
	return repository.TimeRecordingFilter{UserIDs: []uint{userID}}
}
