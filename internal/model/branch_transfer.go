package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BranchTransfer records an item moving between two branches of one organization.
// It is a record only: item quantities are organization-wide and do not change.
type BranchTransfer struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	FromBranchID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ToBranchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Date           Day             `gorm:"type:date;not null;index"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	PerformedBy    uuid.UUID       `gorm:"type:uuid;not null"`
	Notes          *string
	CreatedAt      time.Time

	Item       *Item    `gorm:"foreignKey:ItemID"`
	FromBranch *Branch  `gorm:"foreignKey:FromBranchID"`
	ToBranch   *Branch  `gorm:"foreignKey:ToBranchID"`
	Performer  *Profile `gorm:"foreignKey:PerformedBy"`
}
