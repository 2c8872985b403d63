package rbac

import (
	"context"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

// RoleResolver loads a role by id. Implemented by Service with its cache, and
// by test doubles.
type RoleResolver interface {
	Role(ctx context.Context, id int64) (*Role, error)
}

// Evaluator decides allow/deny for the two policy shapes used to gate
// operations. Unauthenticated and forbidden stay distinguishable end to end:
// clients re-authenticate on 401 and give up on 403.
type Evaluator struct {
	roles RoleResolver
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(roles RoleResolver) *Evaluator {
	return &Evaluator{roles: roles}
}

// Allow applies the capability policy: the identity must carry a role whose
// permission map grants resource/action. A permission miss is an everyday
// outcome and surfaces as Forbidden, not as an internal error.
func (e *Evaluator) Allow(ctx context.Context, identity *shared.Identity, resource, action string) error {
	if identity == nil {
		return apperr.Unauthenticated("")
	}
	if identity.RoleID == nil {
		return apperr.Forbidden("")
	}
	role, err := e.roles.Role(ctx, *identity.RoleID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Forbidden("")
		}
		return err
	}
	if !HasPermission(role, resource, action) {
		return apperr.Forbidden("")
	}
	return nil
}

// AllowOwner applies the owner-only policy: the identity must carry the owner
// linkage, independent of any configured permissions.
func (e *Evaluator) AllowOwner(identity *shared.Identity) error {
	if identity == nil {
		return apperr.Unauthenticated("")
	}
	if !identity.IsOwner {
		return apperr.Forbidden("")
	}
	return nil
}
