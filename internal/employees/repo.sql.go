package employees

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for employees.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const employeeColumns = `id, email, name, password_hash, role_id, is_owner, is_active, created_at, updated_at`

// GetByID fetches an employee by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	emp, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Employee", "Id", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return emp, nil
}

// GetByEmail fetches an employee by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE email = $1`, email)
	emp, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Employee", "Email", email)
		}
		return nil, err
	}
	return emp, nil
}

// List returns all employees ordered by id.
func (r *Repository) List(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

// Create inserts a new employee. A duplicate email maps to AlreadyExists.
func (r *Repository) Create(ctx context.Context, emp Employee) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO employees (email, name, password_hash, role_id, is_owner, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+employeeColumns,
		emp.Email, emp.Name, emp.PasswordHash, emp.RoleID, emp.IsOwner, emp.IsActive)
	created, err := scanEmployee(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.AlreadyExists("Employee", "Email", emp.Email)
		}
		return nil, err
	}
	return created, nil
}

// Update persists role assignment and activation changes.
func (r *Repository) Update(ctx context.Context, id int64, roleID *int64, isActive bool) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE employees SET role_id = $2, is_active = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+employeeColumns,
		id, roleID, isActive)
	updated, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Employee", "Id", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return updated, nil
}

// CountByRole reports how many employees reference a role.
func (r *Repository) CountByRole(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM employees WHERE role_id = $1`, roleID).Scan(&count)
	return count, err
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	if err := row.Scan(
		&emp.ID, &emp.Email, &emp.Name, &emp.PasswordHash, &emp.RoleID,
		&emp.IsOwner, &emp.IsActive, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &emp, nil
}
