package roles

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/rbac"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for role administration.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, permissions, is_super_user, created_at, updated_at`

// List returns all roles ordered by id.
func (r *Repository) List(ctx context.Context) ([]rbac.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []rbac.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *role)
	}
	return out, rows.Err()
}

// Get fetches a role by id.
func (r *Repository) Get(ctx context.Context, id int64) (*rbac.Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role", "Id", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return role, nil
}

// Create inserts a new role. Duplicate names map to AlreadyExists.
func (r *Repository) Create(ctx context.Context, name string, permissions rbac.PermissionMap, isSuperUser bool) (*rbac.Role, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, permissions, is_super_user) VALUES ($1, $2, $3)
		 RETURNING `+roleColumns,
		name, permissions, isSuperUser)
	role, err := scanRole(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.AlreadyExists("Role", "Name", name)
		}
		return nil, err
	}
	return role, nil
}

// ReplacePermissions stores a whole new permission map for the role.
func (r *Repository) ReplacePermissions(ctx context.Context, id int64, permissions rbac.PermissionMap) (*rbac.Role, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE roles SET permissions = $2, updated_at = now() WHERE id = $1
		 RETURNING `+roleColumns,
		id, permissions)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role", "Id", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return role, nil
}

// Delete removes a role by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role", "Id", strconv.FormatInt(id, 10))
	}
	return nil
}

func scanRole(row pgx.Row) (*rbac.Role, error) {
	var role rbac.Role
	if err := row.Scan(
		&role.ID, &role.Name, &role.Permissions, &role.IsSuperUser,
		&role.CreatedAt, &role.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &role, nil
}
