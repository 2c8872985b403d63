package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert persists a new refresh token record.
func (r *PGRepository) Insert(ctx context.Context, token RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, subject_id, family_id, token_hash, issued_at, expires_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		token.ID, token.SubjectID, token.FamilyID, token.TokenHash, token.IssuedAt, token.ExpiresAt)
	return err
}

// RotateHead atomically revokes the usable token matching hash and links it
// to its replacement. The revoked/expiry guards in the WHERE clause make the
// rotation race-safe against concurrent use of the same value.
func (r *PGRepository) RotateHead(ctx context.Context, hash string, now time.Time, replacedBy uuid.UUID) (*RefreshToken, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE refresh_tokens
		 SET revoked = true, replaced_by = $3
		 WHERE token_hash = $1 AND NOT revoked AND expires_at > $2
		 RETURNING id, subject_id, family_id, token_hash, issued_at, expires_at, revoked, replaced_by`,
		hash, now, replacedBy)
	token, err := scanRefreshToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

// FindByHash returns the token record for hash, nil when absent.
func (r *PGRepository) FindByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, family_id, token_hash, issued_at, expires_at, revoked, replaced_by
		 FROM refresh_tokens WHERE token_hash = $1`, hash)
	token, err := scanRefreshToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

// Revoke marks the token revoked. Unknown or already-revoked values are a
// no-op, keeping logout idempotent.
func (r *PGRepository) Revoke(ctx context.Context, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1 AND NOT revoked`, hash)
	return err
}

// RevokeFamily revokes every token descended from one login.
func (r *PGRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE family_id = $1 AND NOT revoked`, familyID)
	return err
}

// DeleteExpired removes tokens past their expiry and reports how many rows
// were purged.
func (r *PGRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	var token RefreshToken
	if err := row.Scan(
		&token.ID, &token.SubjectID, &token.FamilyID, &token.TokenHash,
		&token.IssuedAt, &token.ExpiresAt, &token.Revoked, &token.ReplacedBy,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

var _ Repository = (*PGRepository)(nil)
