package auth

import (
	"time"

	"github.com/google/uuid"
)

// TokenPair is returned by login and refresh: a signed access token, the
// opaque refresh value, and the access token expiry.
type TokenPair struct {
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshToken is the persisted record behind an opaque refresh value. Only
// the SHA-256 hash of the value is stored; a leaked table is useless to an
// attacker. FamilyID groups every token descended from one login so a
// detected replay can kill the whole chain.
type RefreshToken struct {
	ID         uuid.UUID
	SubjectID  int64
	FamilyID   uuid.UUID
	TokenHash  string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *uuid.UUID
}

// Subject is the employee-directory projection the token service works with.
type Subject struct {
	ID       int64
	Email    string
	Name     string
	RoleID   *int64
	IsOwner  bool
	IsActive bool
}
