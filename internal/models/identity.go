package models

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

type IdentityStatus string

const (
	IdentityStatusActive   IdentityStatus = "active"
	IdentityStatusInactive IdentityStatus = "inactive"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// RoleAttributes carries the per-role profile fields. Which fields are
// meaningful depends on Role: students use Year/College, mentors use
// ApprovalStatus/ProfileCompleted.
type RoleAttributes struct {
	Year             int
	College          string
	ApprovalStatus   ApprovalStatus
	ProfileCompleted bool
}

// Identity is the canonical record for an authenticated user of any role.
// The role is immutable after creation; identities are deactivated rather
// than deleted.
type Identity struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Role         Role
	Status       IdentityStatus
	Attributes   RoleAttributes
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
