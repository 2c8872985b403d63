package employees

import "time"

// Employee represents a staff account. IsOwner is the owner linkage: a fact
// independent of the assigned role that marks the business owner.
type Employee struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	RoleID       *int64
	IsOwner      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
