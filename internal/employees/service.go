package employees

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/auth"
)

// RepositoryPort defines data access methods for employees.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Create(ctx context.Context, emp Employee) (*Employee, error)
	Update(ctx context.Context, id int64, roleID *int64, isActive bool) (*Employee, error)
	CountByRole(ctx context.Context, roleID int64) (int64, error)
}

// Service handles employee business logic and doubles as the employee
// directory consumed by the token service.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Subject resolves an employee to the directory projection used at token
// issuance and refresh.
func (s *Service) Subject(ctx context.Context, id int64) (*auth.Subject, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSubject(emp), nil
}

// Authenticate validates email/password credentials. All credential failures
// look alike; only a deactivated account is distinguished, per the error
// taxonomy.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.Subject, error) {
	emp, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	if !emp.IsActive {
		return nil, apperr.AccountDeactivated(emp.Email)
	}
	return toSubject(emp), nil
}

// List returns all employees.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.repo.List(ctx)
}

// Get returns a single employee by id.
func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a new employee with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, email, name, password string, roleID *int64) (*Employee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.MalformedArgument("email")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, Employee{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		RoleID:       roleID,
		IsActive:     true,
	})
}

// Update changes role assignment and activation for an employee.
func (s *Service) Update(ctx context.Context, id int64, roleID *int64, isActive bool) (*Employee, error) {
	return s.repo.Update(ctx, id, roleID, isActive)
}

// CountByRole reports how many employees reference a role. Used by role
// administration to guard deletes.
func (s *Service) CountByRole(ctx context.Context, roleID int64) (int64, error) {
	return s.repo.CountByRole(ctx, roleID)
}

func toSubject(emp *Employee) *auth.Subject {
	return &auth.Subject{
		ID:       emp.ID,
		Email:    emp.Email,
		Name:     emp.Name,
		RoleID:   emp.RoleID,
		IsOwner:  emp.IsOwner,
		IsActive: emp.IsActive,
	}
}

var _ auth.Directory = (*Service)(nil)
