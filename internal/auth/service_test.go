package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken // keyed by hash
}

func newMockRepository() *mockRepository {
	return &mockRepository{tokens: make(map[string]*RefreshToken)}
}

func (m *mockRepository) Insert(ctx context.Context, token RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.TokenHash] = &token
	return nil
}

func (m *mockRepository) RotateHead(ctx context.Context, hash string, now time.Time, replacedBy uuid.UUID) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[hash]
	if !ok || token.Revoked || !token.ExpiresAt.After(now) {
		return nil, nil
	}
	token.Revoked = true
	token.ReplacedBy = &replacedBy
	clone := *token
	return &clone, nil
}

func (m *mockRepository) FindByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[hash]
	if !ok {
		return nil, nil
	}
	clone := *token
	return &clone, nil
}

func (m *mockRepository) Revoke(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.tokens[hash]; ok {
		token.Revoked = true
	}
	return nil
}

func (m *mockRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.tokens {
		if token.FamilyID == familyID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for hash, token := range m.tokens {
		if !token.ExpiresAt.After(before) {
			delete(m.tokens, hash)
			removed++
		}
	}
	return removed, nil
}

func (m *mockRepository) countRevoked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, token := range m.tokens {
		if token.Revoked {
			n++
		}
	}
	return n
}

type mockDirectory struct {
	subjects map[int64]*Subject
}

func (m *mockDirectory) Subject(ctx context.Context, id int64) (*Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, apperr.NotFound("Employee", "Id", "unknown")
	}
	clone := *subject
	return &clone, nil
}

func (m *mockDirectory) Authenticate(ctx context.Context, email, password string) (*Subject, error) {
	for _, subject := range m.subjects {
		if subject.Email == email {
			clone := *subject
			return &clone, nil
		}
	}
	return nil, apperr.Unauthenticated("invalid credentials")
}

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate rsa key: %v", err)
		}
		testKey = key
	})
	return &KeyPair{Private: testKey, Public: &testKey.PublicKey}
}

func roleIDPtr(v int64) *int64 { return &v }

func newTestService(t *testing.T) (*Service, *mockRepository, *mockDirectory) {
	t.Helper()
	repo := newMockRepository()
	directory := &mockDirectory{subjects: map[int64]*Subject{
		10: {ID: 10, Email: "cashier@fixpoint.local", Name: "Casey", RoleID: roleIDPtr(5), IsActive: true},
		1:  {ID: 1, Email: "owner@fixpoint.local", Name: "Olive", IsOwner: true, IsActive: true},
		20: {ID: 20, Email: "former@fixpoint.local", Name: "Frank", RoleID: roleIDPtr(5), IsActive: false},
	}}
	svc := NewService(repo, directory, testKeyPair(t), 30*time.Minute, 14*24*time.Hour, nil)
	return svc, repo, directory
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)
	require.NotEmpty(t, pair.Token)
	require.NotEmpty(t, pair.RefreshToken)

	identity, err := svc.ValidateAccessToken(pair.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 10, identity.SubjectID)
	require.NotNil(t, identity.RoleID)
	assert.EqualValues(t, 5, *identity.RoleID)
	assert.False(t, identity.IsOwner)
	assert.NotEmpty(t, identity.TokenID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), identity.ExpiresAt, time.Minute)
}

func TestIssueCarriesOwnerLinkage(t *testing.T) {
	svc, _, _ := newTestService(t)

	pair, err := svc.IssueTokenPair(context.Background(), 1, nil)
	require.NoError(t, err)

	identity, err := svc.ValidateAccessToken(pair.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsOwner)
	assert.Nil(t, identity.RoleID)
}

func TestAuthenticateDelegatesToDirectory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject, err := svc.Authenticate(ctx, "cashier@fixpoint.local", "correct-horse")
	require.NoError(t, err)
	assert.EqualValues(t, 10, subject.ID)

	_, err = svc.Authenticate(ctx, "nobody@fixpoint.local", "correct-horse")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestIssueRefusesDeactivatedAccount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.IssueTokenPair(context.Background(), 20, roleIDPtr(5))
	assert.True(t, apperr.IsKind(err, apperr.KindAccountDeactivated))
}

func TestValidateRejectionsAreOpaque(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)

	// Tampered payload fails exactly like garbage and like an expired token.
	parts := strings.Split(pair.Token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	flipped := strings.Replace(string(payload), `"sub":"10"`, `"sub":"11"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(flipped))
	tampered := strings.Join(parts, ".")

	expired := func() string {
		clock := svc.now
		svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		defer func() { svc.now = clock }()
		p, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
		require.NoError(t, err)
		return p.Token
	}()

	for _, token := range []string{tampered, expired, "not-a-token", ""} {
		_, err := svc.ValidateAccessToken(token)
		require.Error(t, err)
		appErr := &apperr.Error{}
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindUnauthenticated, appErr.Kind)
		assert.Equal(t, "invalid or expired token", appErr.Message)
	}
}

func TestRefreshRotatesChain(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)

	rotated, err := svc.RefreshTokenPair(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEqual(t, pair.Token, rotated.Token)

	identity, err := svc.ValidateAccessToken(rotated.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 10, identity.SubjectID)

	// Old head revoked, new head usable, same family. Checked before any
	// replay: presenting a spent value revokes the whole chain.
	oldHead, err := repo.FindByHash(ctx, hashRefreshValue(pair.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, oldHead)
	assert.True(t, oldHead.Revoked)
	require.NotNil(t, oldHead.ReplacedBy)

	newHead, err := repo.FindByHash(ctx, hashRefreshValue(rotated.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, newHead)
	assert.False(t, newHead.Revoked)
	assert.Equal(t, oldHead.FamilyID, newHead.FamilyID)
	assert.Equal(t, *oldHead.ReplacedBy, newHead.ID)

	// The old value is spent: a second use fails.
	_, err = svc.RefreshTokenPair(ctx, pair.RefreshToken)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestRefreshConcurrentUseSingleWinner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)

	const attempts = 8
	errs := make([]error, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.RefreshTokenPair(ctx, pair.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent refresh may succeed")
}

func TestRefreshReuseRevokesFamily(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)
	rotated, err := svc.RefreshTokenPair(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// Replaying the spent value kills the whole family, including the live head.
	_, err = svc.RefreshTokenPair(ctx, pair.RefreshToken)
	require.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	_, err = svc.RefreshTokenPair(ctx, rotated.RefreshToken)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
	assert.Equal(t, 2, repo.countRevoked())
}

func TestRefreshRefusesDeactivatedAccount(t *testing.T) {
	svc, _, directory := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)

	directory.subjects[10].IsActive = false

	_, err = svc.RefreshTokenPair(ctx, pair.RefreshToken)
	assert.True(t, apperr.IsKind(err, apperr.KindAccountDeactivated))
}

func TestRevokeRefreshToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshToken(ctx, pair.RefreshToken))

	_, err = svc.RefreshTokenPair(ctx, pair.RefreshToken)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	// Revoking again, or revoking an unknown value, is a no-op.
	assert.NoError(t, svc.RevokeRefreshToken(ctx, pair.RefreshToken))
	assert.NoError(t, svc.RevokeRefreshToken(ctx, "never-issued"))
}

func TestPurgeExpired(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	clock := svc.now
	svc.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	_, err := svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)
	svc.now = clock

	_, err = svc.IssueTokenPair(ctx, 10, roleIDPtr(5))
	require.NoError(t, err)

	removed, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.Len(t, repo.tokens, 1)
}

func TestDisabledKeysMode(t *testing.T) {
	repo := newMockRepository()
	directory := &mockDirectory{subjects: map[int64]*Subject{}}
	svc := NewService(repo, directory, nil, 0, 0, nil)

	assert.False(t, svc.Enabled())

	_, err := svc.IssueTokenPair(context.Background(), 10, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidOperation))

	_, err = svc.ValidateAccessToken("anything")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	_, err = svc.RefreshTokenPair(context.Background(), "anything")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}
