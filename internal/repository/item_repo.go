package repository

import (
	"context"

	"stockbook/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemRepository defines the data access contract for the item ledger.
// Services depend on this interface, not on the GORM implementation,
// so unit tests can swap in an in-memory stub.
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	List(ctx context.Context, organizationID *uuid.UUID) ([]model.Item, error)

	// FindForUpdateTx reads the item and holds a row lock until tx ends.
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Item, error)
	// ApplyDeltaTx adds delta to quantity only if the result stays >= 0.
	// Returns ErrStockGuard when the guard rejects the change.
	ApplyDeltaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) DB() *gorm.DB { return r.db }

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var it model.Item
	err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error
	return &it, err
}

func (r *itemRepo) List(ctx context.Context, organizationID *uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	q := r.db.WithContext(ctx).Model(&model.Item{})
	if organizationID != nil {
		q = q.Where("organization_id = ?", *organizationID)
	}
	err := q.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var it model.Item
	err := use(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&it, "id = ?", id).Error
	return &it, err
}

func (r *itemRepo) ApplyDeltaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	res := use(r.db, tx).WithContext(ctx).Model(&model.Item{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockGuard
	}
	return nil
}
