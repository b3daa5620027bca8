package dto

import (
	"stockbook/internal/model"

	"github.com/shopspring/decimal"
)

type CreateTransferRequest struct {
	ItemID       string          `json:"item_id"`
	FromBranchID string          `json:"from_branch_id"`
	ToBranchID   string          `json:"to_branch_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Date         string          `json:"date"`
	Notes        *string         `json:"notes" validate:"omitempty,max=500"`
}

type TransferListQuery struct {
	UserID   string `form:"user_id"`
	BranchID string `form:"branch_id"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

type TransferResponse struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"item_id"`
	ItemName       string          `json:"item_name,omitempty"`
	ItemUnit       string          `json:"item_unit,omitempty"`
	FromBranchID   string          `json:"from_branch_id"`
	FromBranchName string          `json:"from_branch_name,omitempty"`
	ToBranchID     string          `json:"to_branch_id"`
	ToBranchName   string          `json:"to_branch_name,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Date           model.Day       `json:"date"`
	OrganizationID string          `json:"organization_id"`
	PerformedBy    string          `json:"performed_by"`
	PerformerEmail string          `json:"performer_email,omitempty"`
	Notes          *string         `json:"notes"`
	CreatedAt      string          `json:"created_at"`
}

type CreateTransferResponse struct {
	Success  bool             `json:"success"`
	Transfer TransferResponse `json:"transfer"`
}

type TransferListResponse struct {
	Success   bool               `json:"success"`
	Transfers []TransferResponse `json:"transfers"`
}
