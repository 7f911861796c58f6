package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RolePublicUser    UserRole = "public_user"
	RoleMortuaryStaff UserRole = "mortuary_staff"
	RolePolice        UserRole = "police"
	RoleAdmin         UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RolePublicUser, RoleMortuaryStaff, RolePolice, RoleAdmin:
		return true
	}
	return false
}

// Privileged roles need an admin's approval before they can act.
func (r UserRole) Privileged() bool {
	return r == RoleMortuaryStaff || r == RolePolice || r == RoleAdmin
}

type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalRejected ApprovalStatus = "rejected"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string         `gorm:"size:255;not null" json:"-"`
	FirstName      string         `gorm:"size:100" json:"first_name,omitempty"`
	LastName       string         `gorm:"size:100" json:"last_name,omitempty"`
	Role           UserRole       `gorm:"size:20;not null;index" json:"role"`
	ApprovalStatus ApprovalStatus `gorm:"size:20;not null;default:pending" json:"approval_status"`
	ApprovedBy     *uuid.UUID     `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
