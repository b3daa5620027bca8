package dto

import (
	"stockbook/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Daily report ────────────────────────────────────────────────────────────

type ReportQuery struct {
	Date           string `form:"date"`
	OrganizationID string `form:"organization_id"`
	Format         string `form:"format"`
}

type ReportRow struct {
	ItemID          string          `json:"item_id"`
	ItemName        string          `json:"item_name"`
	ItemUnit        string          `json:"item_unit"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	OpeningStock    decimal.Decimal `json:"opening_stock"`
	Sales           decimal.Decimal `json:"sales"`
	ClosingStock    decimal.Decimal `json:"closing_stock"`
}

type StockReportResponse struct {
	Success bool        `json:"success"`
	Date    model.Day   `json:"date"`
	Report  []ReportRow `json:"report"`
}

type EmailReportRequest struct {
	Date string `json:"date"`
	To   string `json:"to" validate:"required,email"`
}

// ─── Snapshots and restocking ────────────────────────────────────────────────

type RecordStockRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Date     string          `json:"date"`
	BranchID *string         `json:"branch_id"`
	Notes    *string         `json:"notes" validate:"omitempty,max=500"`
}

type StockListQuery struct {
	Date           string `form:"date"`
	OrganizationID string `form:"organization_id"`
	ItemID         string `form:"item_id"`
	BranchID       string `form:"branch_id"`
}

type FinalizeRequest struct {
	Date string `json:"date"`
}

type StockRecordResponse struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"item_id"`
	ItemName       string          `json:"item_name,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Date           model.Day       `json:"date"`
	BranchID       *string         `json:"branch_id"`
	OrganizationID *string         `json:"organization_id"`
	RecordedBy     string          `json:"recorded_by"`
	Notes          *string         `json:"notes"`
	CreatedAt      string          `json:"created_at"`
}

type RecordStockResponse struct {
	Success bool                `json:"success"`
	Record  StockRecordResponse `json:"record"`
	// UpdatedQuantity is set for restocking, which moves the item ledger
	UpdatedQuantity *decimal.Decimal `json:"updatedQuantity,omitempty"`
}

type StockListResponse struct {
	Success bool                  `json:"success"`
	Records []StockRecordResponse `json:"records"`
}

type FinalizeResponse struct {
	Success bool      `json:"success"`
	Kind    string    `json:"kind"`
	Date    model.Day `json:"date"`
	Written int       `json:"written"`
}

// ─── Movements ───────────────────────────────────────────────────────────────

type MovementQuery struct {
	ItemID   string `form:"item_id"`
	BranchID string `form:"branch_id"`
	Kind     string `form:"kind"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type MovementResponse struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"item_id"`
	ItemName       string          `json:"item_name,omitempty"`
	Kind           string          `json:"kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	ReferenceID    *string         `json:"reference_id"`
	BranchID       *string         `json:"branch_id"`
	CreatedAt      string          `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
