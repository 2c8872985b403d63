package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

// Directory is the employee directory consumed by the token service.
type Directory interface {
	Subject(ctx context.Context, id int64) (*Subject, error)
	Authenticate(ctx context.Context, email, password string) (*Subject, error)
}

// Repository persists refresh tokens.
type Repository interface {
	Insert(ctx context.Context, token RefreshToken) error
	// RotateHead revokes the usable token with the given hash and links it to
	// its replacement in a single conditional update. Returns nil when no
	// usable token matched, so concurrent uses of one value cannot both win.
	RotateHead(ctx context.Context, hash string, now time.Time, replacedBy uuid.UUID) (*RefreshToken, error)
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)
	Revoke(ctx context.Context, hash string) error
	RevokeFamily(ctx context.Context, familyID uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Service owns the token lifecycle: issuance, validation, rotation and
// revocation. Access tokens are RS256 JWTs; refresh tokens are opaque random
// values persisted by hash.
type Service struct {
	repo       Repository
	directory  Directory
	keys       *KeyPair
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a Service. keys may be nil: the service then refuses
// to issue or validate anything and protected routes behave as
// unauthenticated.
func NewService(repo Repository, directory Directory, keys *KeyPair, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *Service {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &Service{
		repo:       repo,
		directory:  directory,
		keys:       keys,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Enabled reports whether the auth subsystem has verification key material.
func (s *Service) Enabled() bool {
	return s.keys.CanVerify()
}

// Authenticate checks email/password credentials against the employee
// directory and returns the matching subject.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Subject, error) {
	return s.directory.Authenticate(ctx, email, password)
}

type accessClaims struct {
	RoleID *int64 `json:"role,omitempty"`
	Owner  bool   `json:"own,omitempty"`
	jwt.RegisteredClaims
}

// IssueTokenPair mints a signed access token and a fresh refresh chain for
// the subject. Plain issuance never revokes existing chains: a new login is a
// parallel session, so multiple devices stay signed in.
func (s *Service) IssueTokenPair(ctx context.Context, subjectID int64, roleID *int64) (TokenPair, error) {
	if !s.keys.CanSign() {
		return TokenPair{}, apperr.InvalidOperation("authentication is disabled: no signing key configured")
	}

	subject, err := s.directory.Subject(ctx, subjectID)
	if err != nil {
		return TokenPair{}, err
	}
	if !subject.IsActive {
		return TokenPair{}, apperr.AccountDeactivated(subject.Email)
	}

	return s.issue(ctx, subjectID, roleID, subject.IsOwner, uuid.New())
}

// issue mints both tokens, persisting the refresh record under familyID.
func (s *Service) issue(ctx context.Context, subjectID int64, roleID *int64, isOwner bool, familyID uuid.UUID) (TokenPair, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.accessTTL)

	claims := accessClaims{
		RoleID: roleID,
		Owner:  isOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.keys.Private)
	if err != nil {
		return TokenPair{}, err
	}

	value, hash, err := newRefreshValue()
	if err != nil {
		return TokenPair{}, err
	}
	record := RefreshToken{
		ID:        uuid.New(),
		SubjectID: subjectID,
		FamilyID:  familyID,
		TokenHash: hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Token: token, RefreshToken: value, ExpiresAt: expiresAt}, nil
}

// ValidateAccessToken verifies signature, expiry and claim shape, and
// reconstructs the request identity. Every rejection collapses into the same
// opaque invalid-token failure so callers cannot learn which check failed.
// Validation is CPU-only and never touches a store.
func (s *Service) ValidateAccessToken(token string) (*shared.Identity, error) {
	if !s.keys.CanVerify() {
		return nil, apperr.InvalidToken()
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	var claims accessClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.keys.Public, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.InvalidToken()
	}

	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, apperr.InvalidToken()
	}

	identity := &shared.Identity{
		SubjectID: subjectID,
		RoleID:    claims.RoleID,
		IsOwner:   claims.Owner,
		TokenID:   claims.ID,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// RefreshTokenPair rotates the presented refresh token and mints a fresh
// pair. The revoke-and-replace is a single conditional update, so a second
// concurrent use of the same value loses the race and fails. Presenting an
// already-revoked value is treated as replay of a stolen token: the whole
// family is revoked and the session must re-authenticate.
func (s *Service) RefreshTokenPair(ctx context.Context, refreshValue string) (TokenPair, error) {
	if !s.keys.CanSign() {
		return TokenPair{}, apperr.InvalidToken()
	}

	hash := hashRefreshValue(refreshValue)
	replacedBy := uuid.New()

	rotated, err := s.repo.RotateHead(ctx, hash, s.now().UTC(), replacedBy)
	if err != nil {
		return TokenPair{}, err
	}
	if rotated == nil {
		s.flagReuse(ctx, hash)
		return TokenPair{}, apperr.InvalidToken()
	}

	subject, err := s.directory.Subject(ctx, rotated.SubjectID)
	if err != nil {
		return TokenPair{}, err
	}
	if !subject.IsActive {
		return TokenPair{}, apperr.AccountDeactivated(subject.Email)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.accessTTL)
	claims := accessClaims{
		RoleID: subject.RoleID,
		Owner:  subject.IsOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.keys.Private)
	if err != nil {
		return TokenPair{}, err
	}

	value, newHash, err := newRefreshValue()
	if err != nil {
		return TokenPair{}, err
	}
	record := RefreshToken{
		ID:        replacedBy,
		SubjectID: subject.ID,
		FamilyID:  rotated.FamilyID,
		TokenHash: newHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Token: token, RefreshToken: value, ExpiresAt: expiresAt}, nil
}

// flagReuse checks whether a failed rotation was a replay of a revoked token
// and, if so, revokes the whole family.
func (s *Service) flagReuse(ctx context.Context, hash string) {
	existing, err := s.repo.FindByHash(ctx, hash)
	if err != nil || existing == nil {
		return
	}
	if !existing.Revoked {
		return
	}
	if err := s.repo.RevokeFamily(ctx, existing.FamilyID); err != nil {
		if s.logger != nil {
			s.logger.Error("revoke token family", slog.Any("error", err))
		}
		return
	}
	if s.logger != nil {
		s.logger.Warn("refresh token reuse detected, family revoked",
			slog.Int64("subject_id", existing.SubjectID),
			slog.String("family_id", existing.FamilyID.String()))
	}
}

// RevokeRefreshToken revokes the refresh token for logout. Revoking an
// already-revoked or unknown value is a no-op.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshValue string) error {
	return s.repo.Revoke(ctx, hashRefreshValue(refreshValue))
}

// PurgeExpired removes refresh tokens past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

// newRefreshValue generates a 256-bit random value and its storage hash.
func newRefreshValue() (value, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	value = base64.RawURLEncoding.EncodeToString(raw)
	return value, hashRefreshValue(value), nil
}

func hashRefreshValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
