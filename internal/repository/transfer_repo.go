package repository

import (
	"context"

	"stockbook/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferListLimit caps GET /transfers/list.
const TransferListLimit = 200

// TransferFilter narrows transfer listings. A set BranchID matches either side of the transfer.
type TransferFilter struct {
	OrganizationID uuid.UUID
	BranchID       *uuid.UUID
	FromDate       *model.Day
	ToDate         *model.Day
}

type TransferRepository interface {
	Create(ctx context.Context, t *model.BranchTransfer) error
	List(ctx context.Context, filter TransferFilter) ([]model.BranchTransfer, error)
}

type transferRepo struct{ db *gorm.DB }

func NewTransferRepository(db *gorm.DB) TransferRepository { return &transferRepo{db: db} }

func (r *transferRepo) Create(ctx context.Context, t *model.BranchTransfer) error {
	return r.db.WithContext(ctx).Omit("Item", "FromBranch", "ToBranch", "Performer").Create(t).Error
}

func (r *transferRepo) List(ctx context.Context, filter TransferFilter) ([]model.BranchTransfer, error) {
	q := r.db.WithContext(ctx).Model(&model.BranchTransfer{}).
		Preload("Item").
		Preload("FromBranch").
		Preload("ToBranch").
		Preload("Performer").
		Where("organization_id = ?", filter.OrganizationID)
	if filter.BranchID != nil {
		q = q.Where("from_branch_id = ? OR to_branch_id = ?", *filter.BranchID, *filter.BranchID)
	}
	if filter.FromDate != nil {
		q = q.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("date <= ?", *filter.ToDate)
	}

	var transfers []model.BranchTransfer
	err := q.Order("date DESC").Order("created_at DESC").Limit(TransferListLimit).Find(&transfers).Error
	return transfers, err
}
