package repository

import (
	"context"

	"stockbook/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleFilter narrows GET /sales/list. Branch is applied with the Permissive policy.
type SaleFilter struct {
	Date           *model.Day
	OrganizationID *uuid.UUID
	Branch         BranchFilter
}

type SaleRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, filter SaleFilter) ([]model.Sale, error)
	// SumByItem totals sold quantity per item for one day.
	SumByItem(ctx context.Context, date model.Day, organizationID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return use(r.db, tx).WithContext(ctx).Omit("Item").Create(s).Error
}

func (r *saleRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := use(r.db, tx).WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) UpdateTx(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return use(r.db, tx).WithContext(ctx).Model(&model.Sale{}).Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"item_id":        s.ItemID,
			"quantity":       s.Quantity,
			"price_per_unit": s.PricePerUnit,
			"total_price":    s.TotalPrice,
			"date":           s.Date,
			"description":    s.Description,
		}).Error
}

func (r *saleRepo) DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := use(r.db, tx).WithContext(ctx).Delete(&model.Sale{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *saleRepo) List(ctx context.Context, filter SaleFilter) ([]model.Sale, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{}).Preload("Item")
	if filter.Date != nil {
		q = q.Where("date = ?", *filter.Date)
	}
	if filter.OrganizationID != nil {
		q = q.Where("organization_id = ?", *filter.OrganizationID)
	}
	q = q.Scopes(filter.Branch.Scope("branch_id", Permissive))

	var sales []model.Sale
	err := q.Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) SumByItem(ctx context.Context, date model.Day, organizationID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	type row struct {
		ItemID uuid.UUID
		Total  decimal.Decimal
	}
	q := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("item_id, SUM(quantity) AS total").
		Where("date = ?", date)
	if organizationID != nil {
		q = q.Where("organization_id = ?", *organizationID)
	}
	var rows []row
	if err := q.Group("item_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, rw := range rows {
		out[rw.ItemID] = rw.Total
	}
	return out, nil
}
