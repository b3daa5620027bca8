package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale records a quantity of one item sold on a business day.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	PricePerUnit   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Date           Day             `gorm:"type:date;not null;index"`
	RecordedBy     uuid.UUID       `gorm:"type:uuid;not null"`
	Description    *string
	OrganizationID *uuid.UUID `gorm:"type:uuid;index"`
	BranchID       *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}
