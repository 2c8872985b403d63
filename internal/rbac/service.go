package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Repository loads roles from the role store.
type Repository interface {
	GetRole(ctx context.Context, id int64) (*Role, error)
}

// Service resolves roles for authorization checks, caching permission maps in
// Redis. The cache is an optimisation only: correctness never depends on it
// and every miss or cache failure falls through to the store.
type Service struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewService constructs a Service. cache may be nil to disable caching.
func NewService(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

type cachedRole struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Permissions PermissionMap `json:"permissions"`
	IsSuperUser bool          `json:"is_super_user"`
}

func cacheKey(id int64) string {
	return fmt.Sprintf("rbac:role:%d", id)
}

// Role returns the role by id, consulting the cache first. Concurrent misses
// for the same role collapse into a single store read.
func (s *Service) Role(ctx context.Context, id int64) (*Role, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, cacheKey(id)).Bytes()
		if err == nil {
			var stored cachedRole
			if err := json.Unmarshal(payload, &stored); err == nil {
				return &Role{
					ID:          stored.ID,
					Name:        stored.Name,
					Permissions: stored.Permissions,
					IsSuperUser: stored.IsSuperUser,
				}, nil
			}
		} else if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("rbac cache get", slog.Any("error", err))
		}
	}

	result, err, _ := s.group.Do(cacheKey(id), func() (any, error) {
		role, err := s.repo.GetRole(ctx, id)
		if err != nil {
			return nil, err
		}
		s.store(ctx, role)
		return role, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Role), nil
}

// Invalidate drops the cached permission map for a role. Must be called on
// every permission update so readers never act on stale grants.
func (s *Service) Invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(id)).Err(); err != nil && s.logger != nil {
		s.logger.Warn("rbac cache invalidate", slog.Any("error", err))
	}
}

func (s *Service) store(ctx context.Context, role *Role) {
	if s.cache == nil || role == nil {
		return
	}
	payload, err := json.Marshal(cachedRole{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: role.Permissions,
		IsSuperUser: role.IsSuperUser,
	})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(role.ID), payload, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.Warn("rbac cache set", slog.Any("error", err))
	}
}
