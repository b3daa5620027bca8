package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a stock-keeping unit with its live on-hand quantity.
// Quantity never drops below zero at rest; the sale and restock paths enforce it.
type Item struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID *uuid.UUID      `gorm:"type:uuid;index"`
	Name           string          `gorm:"index;not null"`
	Unit           string          `gorm:"not null;default:'unit'"`
	Quantity       decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	PricePerUnit   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Description    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
