package dto

import (
	"stockbook/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSaleRequest struct {
	ItemID       string          `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" validate:"min=0"`
	TotalPrice   decimal.Decimal `json:"total_price"    validate:"min=0"`
	Date         string          `json:"date"`
	UserID       string          `json:"user_id"`
	Description  *string         `json:"description"    validate:"omitempty,max=500"`
	BranchID     *string         `json:"branch_id"`
}

type UpdateSaleRequest struct {
	SaleID       string           `json:"sale_id"`
	ItemID       string           `json:"item_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	OldQuantity  *decimal.Decimal `json:"old_quantity"`
	PricePerUnit decimal.Decimal  `json:"price_per_unit" validate:"min=0"`
	TotalPrice   decimal.Decimal  `json:"total_price"    validate:"min=0"`
	Date         string           `json:"date"`
	Description  *string          `json:"description"    validate:"omitempty,max=500"`
}

// DeleteSaleRequest is read from the query string.
type DeleteSaleRequest struct {
	SaleID   string `form:"sale_id"`
	ItemID   string `form:"item_id"`
	Quantity string `form:"quantity"`
}

type SaleListQuery struct {
	Date           string `form:"date"`
	OrganizationID string `form:"organization_id"`
	BranchID       string `form:"branch_id"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleResponse struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"item_id"`
	ItemName       string          `json:"item_name,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Date           model.Day       `json:"date"`
	RecordedBy     string          `json:"recorded_by"`
	Description    *string         `json:"description"`
	OrganizationID *string         `json:"organization_id"`
	BranchID       *string         `json:"branch_id"`
	CreatedAt      string          `json:"created_at"`
}

type CreateSaleResponse struct {
	Success         bool            `json:"success"`
	Sale            SaleResponse    `json:"sale"`
	UpdatedQuantity decimal.Decimal `json:"updatedQuantity"`
}

// MutateSaleResponse answers update and delete.
type MutateSaleResponse struct {
	Success         bool            `json:"success"`
	UpdatedQuantity decimal.Decimal `json:"updatedQuantity"`
}

type SaleListResponse struct {
	Success bool           `json:"success"`
	Sales   []SaleResponse `json:"sales"`
}
