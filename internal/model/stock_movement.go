package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement kinds
const (
	MovementSale          = "sale"
	MovementSaleUpdate    = "sale_update"
	MovementSaleDelete    = "sale_delete"
	MovementRestock       = "restock"
	MovementRestockDelete = "restock_delete"
)

// StockMovement is an append-only ledger entry written in the same transaction
// as every change to Item.Quantity.
type StockMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind           string          `gorm:"type:varchar(20);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(14,3);not null"` // signed: positive = in
	QuantityBefore decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	ReferenceID    *uuid.UUID      `gorm:"type:uuid"` // sale or restocking id
	OrganizationID *uuid.UUID      `gorm:"type:uuid;index"`
	BranchID       *uuid.UUID      `gorm:"type:uuid;index"`
	RecordedBy     *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt      time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
