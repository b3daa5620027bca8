package repository

import (
	"context"
	"fmt"

	"stockbook/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockRecordFilter narrows opening / closing / restocking listings.
// Branch is applied with the Permissive policy.
type StockRecordFilter struct {
	Date           *model.Day
	OrganizationID *uuid.UUID
	ItemID         *uuid.UUID
	Branch         BranchFilter
}

// StockRecordRepository serves the three per-day stock tables, selected by kind.
type StockRecordRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, rec *model.StockRecord) error
	FindByIDTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, id uuid.UUID) (*model.StockRecord, error)
	// UpsertTx inserts rec or overwrites quantity, notes and recorder of the row
	// already holding its (item, date, branch) key. rec receives the stored row.
	// Opening and closing only.
	UpsertTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, rec *model.StockRecord) error
	DeleteTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, id uuid.UUID) error
	List(ctx context.Context, kind model.SnapshotKind, filter StockRecordFilter) ([]model.StockRecord, error)
	// LatestByItem returns, per item, the quantity of the most recently created record of the day.
	LatestByItem(ctx context.Context, kind model.SnapshotKind, date model.Day, organizationID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	Count(ctx context.Context, kind model.SnapshotKind, date model.Day, organizationID *uuid.UUID) (int64, error)
}

type stockRecordRepo struct{ db *gorm.DB }

func NewStockRecordRepository(db *gorm.DB) StockRecordRepository {
	return &stockRecordRepo{db: db}
}

func (r *stockRecordRepo) table(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind) *gorm.DB {
	return use(r.db, tx).WithContext(ctx).Table(kind.Table())
}

func (r *stockRecordRepo) CreateTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, rec *model.StockRecord) error {
	return r.table(ctx, tx, kind).Omit("Item").Create(rec).Error
}

func (r *stockRecordRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, id uuid.UUID) (*model.StockRecord, error) {
	var rec model.StockRecord
	err := r.table(ctx, tx, kind).Where("id = ?", id).Take(&rec).Error
	return &rec, err
}

// upsertSnapshot's conflict target must repeat the expression of idx_<table>_key.
const upsertSnapshot = `INSERT INTO %s
    (item_id, quantity, date, branch_id, organization_id, recorded_by, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
ON CONFLICT (item_id, date, COALESCE(branch_id, '00000000-0000-0000-0000-000000000000'::uuid))
DO UPDATE SET quantity = EXCLUDED.quantity, notes = EXCLUDED.notes,
    recorded_by = EXCLUDED.recorded_by, updated_at = NOW()
RETURNING *`

func (r *stockRecordRepo) UpsertTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, rec *model.StockRecord) error {
	if kind == model.SnapshotRestocking {
		return fmt.Errorf("upsert: %s rows have no key", kind)
	}
	return use(r.db, tx).WithContext(ctx).
		Raw(fmt.Sprintf(upsertSnapshot, kind.Table()),
			rec.ItemID, rec.Quantity, rec.Date, rec.BranchID, rec.OrganizationID, rec.RecordedBy, rec.Notes).
		Scan(rec).Error
}

func (r *stockRecordRepo) DeleteTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, id uuid.UUID) error {
	res := r.table(ctx, tx, kind).Where("id = ?", id).Delete(&model.StockRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *stockRecordRepo) List(ctx context.Context, kind model.SnapshotKind, filter StockRecordFilter) ([]model.StockRecord, error) {
	q := r.table(ctx, nil, kind).Preload("Item")
	if filter.Date != nil {
		q = q.Where("date = ?", *filter.Date)
	}
	if filter.OrganizationID != nil {
		q = q.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	q = q.Scopes(filter.Branch.Scope("branch_id", Permissive))

	var recs []model.StockRecord
	err := q.Order("created_at DESC").Find(&recs).Error
	return recs, err
}

func (r *stockRecordRepo) LatestByItem(ctx context.Context, kind model.SnapshotKind, date model.Day, organizationID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	q := r.table(ctx, nil, kind).Select("item_id, quantity").Where("date = ?", date)
	if organizationID != nil {
		q = q.Where("organization_id = ?", *organizationID)
	}
	var recs []model.StockRecord
	if err := q.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(recs))
	for _, rec := range recs {
		// rows arrive newest first; keep the first seen per item
		if _, seen := out[rec.ItemID]; !seen {
			out[rec.ItemID] = rec.Quantity
		}
	}
	return out, nil
}

func (r *stockRecordRepo) Count(ctx context.Context, kind model.SnapshotKind, date model.Day, organizationID *uuid.UUID) (int64, error) {
	q := r.table(ctx, nil, kind).Where("date = ?", date)
	if organizationID != nil {
		q = q.Where("organization_id = ?", *organizationID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
