package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotKind selects one of the three per-day stock record tables.
type SnapshotKind string

const (
	SnapshotOpening    SnapshotKind = "opening"
	SnapshotClosing    SnapshotKind = "closing"
	SnapshotRestocking SnapshotKind = "restocking"
)

// Table returns the table backing the kind.
func (k SnapshotKind) Table() string {
	switch k {
	case SnapshotOpening:
		return "opening_stock"
	case SnapshotClosing:
		return "closing_stock"
	case SnapshotRestocking:
		return "restocking"
	}
	return ""
}

// Valid reports whether k names a known table.
func (k SnapshotKind) Valid() bool { return k.Table() != "" }

// StockRecord is the shared shape of opening stock, closing stock and restocking rows.
// Opening and closing are snapshots (one per item, date and branch); restocking is an event.
type StockRecord struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Date           Day             `gorm:"type:date;not null;index"`
	BranchID       *uuid.UUID      `gorm:"type:uuid;index"`
	OrganizationID *uuid.UUID      `gorm:"type:uuid;index"`
	RecordedBy     uuid.UUID       `gorm:"type:uuid;not null"`
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}

// OpeningStock, ClosingStock and Restocking exist so AutoMigrate creates one table each.
type OpeningStock struct{ StockRecord }

func (OpeningStock) TableName() string { return SnapshotOpening.Table() }

type ClosingStock struct{ StockRecord }

func (ClosingStock) TableName() string { return SnapshotClosing.Table() }

type Restocking struct{ StockRecord }

func (Restocking) TableName() string { return SnapshotRestocking.Table() }
