package rbac

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

type countingRepo struct {
	mu    sync.Mutex
	roles map[int64]*Role
	calls int64
}

func (c *countingRepo) GetRole(ctx context.Context, id int64) (*Role, error) {
	atomic.AddInt64(&c.calls, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	role, ok := c.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role", "Id", "unknown")
	}
	clone := *role
	clone.Permissions = role.Permissions.Clone()
	return &clone, nil
}

func newCachedService(t *testing.T) (*Service, *countingRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &countingRepo{roles: map[int64]*Role{5: cashierRole()}}
	return NewService(repo, client, time.Minute, nil), repo
}

func TestRoleCacheMissThenHit(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()

	role, err := svc.Role(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, role.Name)
	assert.EqualValues(t, 1, atomic.LoadInt64(&repo.calls))

	role, err = svc.Role(ctx, 5)
	require.NoError(t, err)
	assert.True(t, HasPermission(role, shared.ResourcePOS, shared.ActionEdit))
	assert.EqualValues(t, 1, atomic.LoadInt64(&repo.calls), "second read must be served from cache")
}

func TestRoleInvalidateForcesReload(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()

	_, err := svc.Role(ctx, 5)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.roles[5].Permissions[shared.ResourceInventory] = map[string]bool{shared.ActionView: true}
	repo.mu.Unlock()

	// Stale until invalidated.
	role, err := svc.Role(ctx, 5)
	require.NoError(t, err)
	assert.False(t, HasPermission(role, shared.ResourceInventory, shared.ActionView))

	svc.Invalidate(ctx, 5)

	role, err = svc.Role(ctx, 5)
	require.NoError(t, err)
	assert.True(t, HasPermission(role, shared.ResourceInventory, shared.ActionView))
	assert.EqualValues(t, 2, atomic.LoadInt64(&repo.calls))
}

func TestRoleNotFoundPassesThrough(t *testing.T) {
	svc, _ := newCachedService(t)

	_, err := svc.Role(context.Background(), 99)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRoleWithoutCache(t *testing.T) {
	repo := &countingRepo{roles: map[int64]*Role{5: cashierRole()}}
	svc := NewService(repo, nil, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		role, err := svc.Role(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, RoleCashier, role.Name)
	}
	assert.EqualValues(t, 3, atomic.LoadInt64(&repo.calls))

	// Invalidate without a cache is a no-op.
	svc.Invalidate(ctx, 5)
}

func TestRoleConcurrentMissesCollapse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &countingRepo{roles: map[int64]*Role{5: cashierRole()}}
	svc := NewService(repo, client, time.Minute, nil)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Role(context.Background(), 5)
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Less(t, atomic.LoadInt64(&repo.calls), int64(16), "concurrent misses must collapse into fewer store reads")
}
