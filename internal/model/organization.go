package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every inventory record belongs to one.
type Organization struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	Slug         string    `gorm:"uniqueIndex;not null"`
	Subdomain    *string   `gorm:"type:varchar(63);uniqueIndex"`
	BrandColor   *string   `gorm:"type:varchar(7)"`
	LogoURL      *string
	BusinessType *string
	// OpeningTime / ClosingTime are HH:MM:SS; nil disables automatic snapshots
	OpeningTime *string `gorm:"type:varchar(8)"`
	ClosingTime *string `gorm:"type:varchar(8)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Branch is an optional sub-scope of an Organization.
type Branch struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name           string    `gorm:"not null"`
	CreatedAt      time.Time
}
