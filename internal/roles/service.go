package roles

import (
	"context"
	"strings"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/rbac"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

// RepositoryPort defines data access methods for role administration.
type RepositoryPort interface {
	List(ctx context.Context) ([]rbac.Role, error)
	Get(ctx context.Context, id int64) (*rbac.Role, error)
	Create(ctx context.Context, name string, permissions rbac.PermissionMap, isSuperUser bool) (*rbac.Role, error)
	ReplacePermissions(ctx context.Context, id int64, permissions rbac.PermissionMap) (*rbac.Role, error)
	Delete(ctx context.Context, id int64) error
}

// ReferenceCounter reports how many employees reference a role.
type ReferenceCounter interface {
	CountByRole(ctx context.Context, roleID int64) (int64, error)
}

// CacheInvalidator drops cached permission maps after mutations.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id int64)
}

// Service handles role administration: CRUD, permission grants and the
// referential delete guard.
type Service struct {
	repo       RepositoryPort
	references ReferenceCounter
	cache      CacheInvalidator
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo RepositoryPort, references ReferenceCounter, cache CacheInvalidator) *Service {
	return &Service{repo: repo, references: references, cache: cache}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]rbac.Role, error) {
	return s.repo.List(ctx)
}

// Get returns a role by id.
func (s *Service) Get(ctx context.Context, id int64) (*rbac.Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new role with an empty permission map.
func (s *Service) Create(ctx context.Context, name string) (*rbac.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.MalformedArgument("name")
	}
	return s.repo.Create(ctx, name, rbac.PermissionMap{}, false)
}

// UpdatePermission applies a single grant change through a copy-on-write map
// replacement, persists the new map and invalidates the cache so no reader
// acts on stale grants.
func (s *Service) UpdatePermission(ctx context.Context, id int64, resource, action string, granted bool) (*rbac.Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := rbac.UpdatePermissions(role.Permissions, resource, action, granted)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.ReplacePermissions(ctx, id, next)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return updated, nil
}

// Delete removes a role. Roles still referenced by employees cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	count, err := s.references.CountByRole(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.InvalidOperation("role is assigned to employees and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return nil
}

// Seed provisions the built-in roles once. Existing roles are left untouched.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(existing))
	for _, role := range existing {
		present[role.Name] = struct{}{}
	}
	for _, seed := range builtinRoles() {
		if _, ok := present[seed.Name]; ok {
			continue
		}
		if _, err := s.repo.Create(ctx, seed.Name, seed.Permissions, seed.IsSuperUser); err != nil {
			if apperr.IsKind(err, apperr.KindAlreadyExists) {
				continue
			}
			return err
		}
	}
	return nil
}

func builtinRoles() []rbac.Role {
	view := map[string]bool{shared.ActionView: true}
	viewEdit := map[string]bool{shared.ActionView: true, shared.ActionEdit: true}
	full := map[string]bool{shared.ActionView: true, shared.ActionEdit: true, shared.ActionDelete: true}

	return []rbac.Role{
		{Name: rbac.RoleOwner, IsSuperUser: true, Permissions: rbac.PermissionMap{}},
		{Name: rbac.RoleAdmin, Permissions: rbac.PermissionMap{
			shared.ResourceEmployees: viewEdit,
			shared.ResourceRoles:     viewEdit,
			shared.ResourceTickets:   full,
			shared.ResourcePOS:       full,
			shared.ResourceInventory: full,
		}},
		{Name: rbac.RoleManager, Permissions: rbac.PermissionMap{
			shared.ResourceEmployees: view,
			shared.ResourceTickets:   viewEdit,
			shared.ResourcePOS:       viewEdit,
			shared.ResourceInventory: viewEdit,
		}},
		{Name: rbac.RoleTechnician, Permissions: rbac.PermissionMap{
			shared.ResourceTickets: viewEdit,
		}},
		{Name: rbac.RoleCashier, Permissions: rbac.PermissionMap{
			shared.ResourcePOS:     viewEdit,
			shared.ResourceTickets: view,
		}},
	}
}
