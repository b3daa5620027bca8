package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleSuperAdmin  = "superadmin"
	RoleAdmin       = "admin"
	RoleTenantAdmin = "tenant_admin"
	RoleStaff       = "staff"
)

// IsTenantAdmin reports whether role administers a single organization.
func IsTenantAdmin(role string) bool {
	return role == RoleAdmin || role == RoleTenantAdmin
}

// Profile stores system users with role-based access.
// Superadmins have no organization; everyone else belongs to exactly one.
type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email          string    `gorm:"uniqueIndex;not null"`
	FullName       *string
	PasswordHash   string     `gorm:"not null"`
	Role           string     `gorm:"type:varchar(20);not null;default:'staff'"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index"`
	// BranchID pins staff to one branch; nil = organization-wide
	BranchID  *uuid.UUID `gorm:"type:uuid;index"`
	Active    bool       `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
