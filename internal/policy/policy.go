package policy

import (
	"context"

	"github.com/teamtime/clockwork/internal/constants"
	ctxutil "github.com/teamtime/clockwork/pkg/context"
)

type Action string

const (
	ActionRead      Action = "read"
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionViewStats Action = "view_stats"
)

type ResourceKind string

const (
	ResourceTimeRecording ResourceKind = "time_recording"
	ResourceTeam          ResourceKind = "team"
)

// Resource identifies what an action targets. OwnerID is the user a time
// recording belongs to; ManagerID is the owner of a team.
type Resource struct {
	Kind      ResourceKind
	OwnerID   uint
	ManagerID uint
}

func TimeRecordingOf(ownerID uint) Resource {
	return Resource{Kind: ResourceTimeRecording, OwnerID: ownerID}
}

func TeamManagedBy(managerID uint) Resource {
	return Resource{Kind: ResourceTeam, ManagerID: managerID}
}

// MembershipLookup resolves manager to member relationships through teams.
type MembershipLookup interface {
	IsManagedMember(ctx context.Context, managerID, userID uint) (bool, error)
	ManagedMemberIDs(ctx context.Context, managerID uint) ([]uint, error)
}

// Policy decides what an authenticated caller may do.
type Policy interface {
	CanAccess(ctx context.Context, res Resource, action Action) (bool, error)
	// VisibleUserIDs lists whose time recordings the caller may read. A nil
	// slice with a nil error means unrestricted.
	VisibleUserIDs(ctx context.Context) ([]uint, error)
}

// For returns the policy matching the caller's role. Unknown roles get a
// policy that denies everything.
func For(id ctxutil.Identity, members MembershipLookup) Policy {
	switch id.Role {
	case constants.RoleAdmin:
		return AdminPolicy{}
	case constants.RoleManager:
		return ManagerPolicy{UserID: id.ID, Members: members}
	case constants.RoleEmployee:
		return EmployeePolicy{UserID: id.ID}
	default:
		return denyPolicy{}
	}
}

type AdminPolicy struct{}

func (AdminPolicy) CanAccess(context.Context, Resource, Action) (bool, error) {
	return true, nil
}

func (AdminPolicy) VisibleUserIDs(context.Context) ([]uint, error) {
	return nil, nil
}

// ManagerPolicy scopes a manager to themself and the members of teams they own.
type ManagerPolicy struct {
	UserID  uint
	Members MembershipLookup
}

func (p ManagerPolicy) CanAccess(ctx context.Context, res Resource, action Action) (bool, error) {
	switch res.Kind {
	case ResourceTeam:
		return action == ActionViewStats && res.ManagerID == p.UserID, nil
	case ResourceTimeRecording:
		if res.OwnerID == p.UserID {
			return true, nil
		}
		return p.Members.IsManagedMember(ctx, p.UserID, res.OwnerID)
	default:
		return false, nil
	}
}

func (p ManagerPolicy) VisibleUserIDs(ctx context.Context) ([]uint, error) {
	ids, err := p.Members.ManagedMemberIDs(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	out := []uint{p.UserID}
	for _, id := range ids {
		if id != p.UserID {
			out = append(out, id)
		}
	}
	return out, nil
}

// EmployeePolicy lets an employee read and clock their own recordings only.
type EmployeePolicy struct {
	UserID uint
}

func (p EmployeePolicy) CanAccess(_ context.Context, res Resource, action Action) (bool, error) {
	if res.Kind != ResourceTimeRecording || res.OwnerID != p.UserID {
		return false, nil
	}
	return action == ActionRead || action == ActionCreate, nil
}

func (p EmployeePolicy) VisibleUserIDs(context.Context) ([]uint, error) {
	return []uint{p.UserID}, nil
}

type denyPolicy struct{}

func (denyPolicy) CanAccess(context.Context, Resource, Action) (bool, error) {
	return false, nil
}

func (denyPolicy) VisibleUserIDs(context.Context) ([]uint, error) {
	return []uint{}, nil
}
