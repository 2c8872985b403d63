package tickets

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
)

// Repository provides PostgreSQL backed persistence for repair tickets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ticketColumns = `id, customer_name, device, issue, status, created_by, created_at, updated_at`

// List returns all tickets, newest first.
func (r *Repository) List(ctx context.Context) ([]Ticket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Get fetches a ticket by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Ticket, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Ticket", "Id", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a new ticket.
func (r *Repository) Create(ctx context.Context, t Ticket) (*Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tickets (customer_name, device, issue, status, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+ticketColumns,
		t.CustomerName, t.Device, t.Issue, t.Status, t.CreatedBy)
	return scanTicket(row)
}

// UpdateStatus persists a status change.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (*Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tickets SET status = $2, updated_at = now() WHERE id = $1
		 RETURNING `+ticketColumns,
		id, status)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Ticket", "Id", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return t, nil
}

// Delete removes a ticket.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Ticket", "Id", strconv.FormatInt(id, 10))
	}
	return nil
}

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	if err := row.Scan(
		&t.ID, &t.CustomerName, &t.Device, &t.Issue, &t.Status,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
