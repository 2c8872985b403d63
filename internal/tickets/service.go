package tickets

import (
	"context"
	"strings"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
)

// RepositoryPort defines data access methods for tickets.
type RepositoryPort interface {
	List(ctx context.Context) ([]Ticket, error)
	Get(ctx context.Context, id int64) (*Ticket, error)
	Create(ctx context.Context, t Ticket) (*Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*Ticket, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles repair ticket operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all tickets.
func (s *Service) List(ctx context.Context) ([]Ticket, error) {
	return s.repo.List(ctx)
}

// Get returns a ticket by id.
func (s *Service) Get(ctx context.Context, id int64) (*Ticket, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new open ticket for the authenticated employee.
func (s *Service) Create(ctx context.Context, customerName, device, issue string, createdBy int64) (*Ticket, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, apperr.MalformedArgument("customerName")
	}
	if strings.TrimSpace(device) == "" {
		return nil, apperr.MalformedArgument("device")
	}
	return s.repo.Create(ctx, Ticket{
		CustomerName: customerName,
		Device:       strings.TrimSpace(device),
		Issue:        strings.TrimSpace(issue),
		Status:       StatusOpen,
		CreatedBy:    createdBy,
	})
}

// UpdateStatus moves a ticket to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Ticket, error) {
	if !ValidStatus(status) {
		return nil, apperr.InvalidOperation("unknown ticket status: " + status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Delete removes a ticket permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
