package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

type stubResolver struct {
	roles map[int64]*Role
}

func (s *stubResolver) Role(ctx context.Context, id int64) (*Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role", "Id", "unknown")
	}
	return role, nil
}

func newEvaluator() *Evaluator {
	return NewEvaluator(&stubResolver{roles: map[int64]*Role{
		1: {ID: 1, Name: RoleOwner, IsSuperUser: true, Permissions: PermissionMap{}},
		5: cashierRole(),
	}})
}

func int64Ptr(v int64) *int64 { return &v }

func TestAllowGrantedCapability(t *testing.T) {
	e := newEvaluator()
	identity := &shared.Identity{SubjectID: 10, RoleID: int64Ptr(5)}

	assert.NoError(t, e.Allow(context.Background(), identity, shared.ResourcePOS, shared.ActionEdit))
}

func TestAllowDeniedCapability(t *testing.T) {
	e := newEvaluator()
	identity := &shared.Identity{SubjectID: 10, RoleID: int64Ptr(5)}

	err := e.Allow(context.Background(), identity, shared.ResourceInventory, shared.ActionDelete)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestAllowUnauthenticated(t *testing.T) {
	e := newEvaluator()

	err := e.Allow(context.Background(), nil, shared.ResourcePOS, shared.ActionView)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestAllowNoRoleAssigned(t *testing.T) {
	e := newEvaluator()
	identity := &shared.Identity{SubjectID: 10}

	err := e.Allow(context.Background(), identity, shared.ResourcePOS, shared.ActionView)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestAllowUnknownRoleIsForbidden(t *testing.T) {
	e := newEvaluator()
	identity := &shared.Identity{SubjectID: 10, RoleID: int64Ptr(99)}

	err := e.Allow(context.Background(), identity, shared.ResourcePOS, shared.ActionView)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestAllowSuperUser(t *testing.T) {
	e := newEvaluator()
	identity := &shared.Identity{SubjectID: 1, RoleID: int64Ptr(1)}

	assert.NoError(t, e.Allow(context.Background(), identity, shared.ResourceRoles, shared.ActionDelete))
}

func TestAllowOwner(t *testing.T) {
	e := newEvaluator()

	err := e.AllowOwner(nil)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	// The owner linkage is independent of role permissions: a superuser role
	// without the linkage is still refused.
	err = e.AllowOwner(&shared.Identity{SubjectID: 1, RoleID: int64Ptr(1)})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	assert.NoError(t, e.AllowOwner(&shared.Identity{SubjectID: 1, IsOwner: true}))
}
