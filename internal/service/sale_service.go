package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockbook/internal/dto"
	"stockbook/internal/model"
	"stockbook/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateSaleRequest) (*dto.CreateSaleResponse, error)
	Update(ctx context.Context, actor Actor, req dto.UpdateSaleRequest) (*dto.MutateSaleResponse, error)
	Delete(ctx context.Context, actor Actor, req dto.DeleteSaleRequest) (*dto.MutateSaleResponse, error)
	List(ctx context.Context, actor Actor, q dto.SaleListQuery) (*dto.SaleListResponse, error)
}

type saleService struct {
	sales     repository.SaleRepository
	items     repository.ItemRepository
	profiles  repository.ProfileRepository
	movements repository.MovementRepository
	ledger    LedgerObserver
}

func NewSaleService(
	sales repository.SaleRepository,
	items repository.ItemRepository,
	profiles repository.ProfileRepository,
	movements repository.MovementRepository,
	ledger LedgerObserver,
) SaleService {
	if ledger == nil {
		ledger = noopLedger{}
	}
	return &saleService{
		sales:     sales,
		items:     items,
		profiles:  profiles,
		movements: movements,
		ledger:    ledger,
	}
}

var errMissingFields = invalid("", "Missing required fields")

func insufficientStock(requested, available decimal.Decimal) error {
	return &ValidationError{
		Field:   "quantity",
		Message: fmt.Sprintf("Cannot record sales of %s. Available stock: %s", requested, available),
		Kind:    ErrInsufficientStock,
	}
}

func negativeStock(available decimal.Decimal) error {
	return &ValidationError{
		Field:   "quantity",
		Message: fmt.Sprintf("Cannot update. Available stock after adjustment: %s", available),
		Kind:    ErrNegativeStock,
	}
}

// lockItem fetches an item FOR UPDATE and hides items of other organizations.
func (s *saleService) lockItem(ctx context.Context, tx *gorm.DB, actor Actor, id uuid.UUID) (*model.Item, error) {
	item, err := s.items.FindForUpdateTx(ctx, tx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Item")
		}
		return nil, storeErr("Failed to fetch item", err)
	}
	if !actor.canSee(item.OrganizationID) {
		return nil, notFound("Item")
	}
	return item, nil
}

// applyDelta moves item quantity and appends the matching ledger entry.
func (s *saleService) applyDelta(ctx context.Context, tx *gorm.DB, item *model.Item, kind string, delta decimal.Decimal, sale *model.Sale, onGuard error) (decimal.Decimal, error) {
	if err := s.items.ApplyDeltaTx(ctx, tx, item.ID, delta); err != nil {
		if errors.Is(err, repository.ErrStockGuard) && onGuard != nil {
			return decimal.Zero, onGuard
		}
		return decimal.Zero, storeErr("Failed to update item quantity", err)
	}
	m := movement(kind, item.ID, delta, item.Quantity, &sale.ID)
	m.OrganizationID = sale.OrganizationID
	m.BranchID = sale.BranchID
	m.RecordedBy = &sale.RecordedBy
	if err := s.movements.CreateTx(ctx, tx, m); err != nil {
		return decimal.Zero, storeErr("Failed to record stock movement", err)
	}
	item.Quantity = m.QuantityAfter
	return m.QuantityAfter, nil
}

// ── Create ────────────────────────────────────────────────────────────────────
// One transaction: lock item, check stock, insert sale, conditional decrement, movement.

func (s *saleService) Create(ctx context.Context, actor Actor, req dto.CreateSaleRequest) (*dto.CreateSaleResponse, error) {
	userRaw := req.UserID
	if strings.TrimSpace(userRaw) == "" && actor.UserID != uuid.Nil {
		userRaw = actor.UserID.String()
	}
	if strings.TrimSpace(req.ItemID) == "" || !req.Quantity.IsPositive() ||
		strings.TrimSpace(req.Date) == "" || strings.TrimSpace(userRaw) == "" {
		return nil, errMissingFields
	}
	itemID, err := parseID("item_id", req.ItemID)
	if err != nil {
		return nil, err
	}
	userID, err := parseID("user_id", userRaw)
	if err != nil {
		return nil, err
	}
	date, err := parseDayOr("date", req.Date, "")
	if err != nil {
		return nil, err
	}
	branchID, err := optionalID("branch_id", req.BranchID)
	if err != nil {
		return nil, err
	}

	recorder, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("User")
		}
		return nil, storeErr("Failed to fetch user", err)
	}
	if !actor.canSee(recorder.OrganizationID) {
		return nil, forbidden("Forbidden: user belongs to another organization")
	}
	if branchID == nil {
		branchID = recorder.BranchID
	}

	sale := &model.Sale{
		ItemID:         itemID,
		Quantity:       req.Quantity,
		PricePerUnit:   req.PricePerUnit,
		TotalPrice:     req.TotalPrice,
		Date:           date,
		RecordedBy:     userID,
		Description:    req.Description,
		OrganizationID: recorder.OrganizationID,
		BranchID:       branchID,
	}

	var updated decimal.Decimal
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		item, err := s.lockItem(ctx, tx, actor, itemID)
		if err != nil {
			return err
		}
		if req.Quantity.GreaterThan(item.Quantity) {
			return insufficientStock(req.Quantity, item.Quantity)
		}
		if sale.OrganizationID == nil {
			sale.OrganizationID = item.OrganizationID
		}
		if err := s.sales.CreateTx(ctx, tx, sale); err != nil {
			return storeErr("Failed to record sale", err)
		}
		updated, err = s.applyDelta(ctx, tx, item, model.MovementSale, req.Quantity.Neg(), sale,
			insufficientStock(req.Quantity, item.Quantity))
		if err != nil {
			return err
		}
		sale.Item = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Invalidate(ctx, sale.OrganizationID)
	return &dto.CreateSaleResponse{Success: true, Sale: saleToResponse(sale), UpdatedQuantity: updated}, nil
}

// ── Update ────────────────────────────────────────────────────────────────────
// The stored quantity is authoritative: a stale old_quantity is a conflict.
// Same item: one net delta. Item changed: restore the old item, deduct from the new one.

func (s *saleService) Update(ctx context.Context, actor Actor, req dto.UpdateSaleRequest) (*dto.MutateSaleResponse, error) {
	if strings.TrimSpace(req.SaleID) == "" || strings.TrimSpace(req.ItemID) == "" ||
		req.Quantity.IsZero() || strings.TrimSpace(req.Date) == "" || req.OldQuantity == nil {
		return nil, errMissingFields
	}
	if req.Quantity.IsNegative() {
		return nil, invalid("quantity", "quantity must be positive")
	}
	saleID, err := parseID("sale_id", req.SaleID)
	if err != nil {
		return nil, err
	}
	itemID, err := parseID("item_id", req.ItemID)
	if err != nil {
		return nil, err
	}
	date, err := parseDayOr("date", req.Date, "")
	if err != nil {
		return nil, err
	}
	oldQty := *req.OldQuantity

	var (
		updated decimal.Decimal
		orgID   *uuid.UUID
	)
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		sale, err := s.sales.FindByIDTx(ctx, tx, saleID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Sale")
			}
			return storeErr("Failed to fetch sale", err)
		}
		if !actor.canSee(sale.OrganizationID) {
			return notFound("Sale")
		}
		if !sale.Quantity.Equal(oldQty) {
			return conflict("Sale was modified: stored quantity is %s, not %s", sale.Quantity, oldQty)
		}
		orgID = sale.OrganizationID

		if sale.ItemID == itemID {
			item, err := s.lockItem(ctx, tx, actor, itemID)
			if err != nil {
				return err
			}
			diff := req.Quantity.Sub(oldQty)
			if item.Quantity.Sub(diff).IsNegative() {
				return negativeStock(item.Quantity.Add(oldQty))
			}
			updated = item.Quantity
			if !diff.IsZero() {
				updated, err = s.applyDelta(ctx, tx, item, model.MovementSaleUpdate, diff.Neg(), sale,
					negativeStock(item.Quantity.Add(oldQty)))
				if err != nil {
					return err
				}
			}
		} else {
			oldItem, newItem, err := s.lockPair(ctx, tx, actor, sale.ItemID, itemID)
			if err != nil {
				return err
			}
			if req.Quantity.GreaterThan(newItem.Quantity) {
				return negativeStock(newItem.Quantity)
			}
			if _, err := s.applyDelta(ctx, tx, oldItem, model.MovementSaleUpdate, oldQty, sale, nil); err != nil {
				return err
			}
			updated, err = s.applyDelta(ctx, tx, newItem, model.MovementSaleUpdate, req.Quantity.Neg(), sale,
				negativeStock(newItem.Quantity))
			if err != nil {
				return err
			}
		}

		sale.ItemID = itemID
		sale.Quantity = req.Quantity
		sale.PricePerUnit = req.PricePerUnit
		sale.TotalPrice = req.TotalPrice
		sale.Date = date
		sale.Description = req.Description
		return storeErr("Failed to update sale", s.sales.UpdateTx(ctx, tx, sale))
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Invalidate(ctx, orgID)
	return &dto.MutateSaleResponse{Success: true, UpdatedQuantity: updated}, nil
}

// lockPair locks two items in a stable id order so concurrent swaps cannot deadlock.
func (s *saleService) lockPair(ctx context.Context, tx *gorm.DB, actor Actor, oldID, newID uuid.UUID) (*model.Item, *model.Item, error) {
	first, second := oldID, newID
	if strings.Compare(newID.String(), oldID.String()) < 0 {
		first, second = newID, oldID
	}
	a, err := s.lockItem(ctx, tx, actor, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.lockItem(ctx, tx, actor, second)
	if err != nil {
		return nil, nil, err
	}
	if first == oldID {
		return a, b, nil
	}
	return b, a, nil
}

// ── Delete ────────────────────────────────────────────────────────────────────
// Reversal adds the quantity back with no ceiling check.

func (s *saleService) Delete(ctx context.Context, actor Actor, req dto.DeleteSaleRequest) (*dto.MutateSaleResponse, error) {
	if strings.TrimSpace(req.SaleID) == "" || strings.TrimSpace(req.ItemID) == "" || strings.TrimSpace(req.Quantity) == "" {
		return nil, invalid("", "Missing required parameters")
	}
	saleID, err := parseID("sale_id", req.SaleID)
	if err != nil {
		return nil, err
	}
	itemID, err := parseID("item_id", req.ItemID)
	if err != nil {
		return nil, err
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil || !qty.IsPositive() {
		return nil, invalid("quantity", "Invalid quantity")
	}

	var (
		updated decimal.Decimal
		orgID   *uuid.UUID
	)
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		item, err := s.lockItem(ctx, tx, actor, itemID)
		if err != nil {
			return err
		}
		sale, err := s.sales.FindByIDTx(ctx, tx, saleID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Sale")
			}
			return storeErr("Failed to fetch sale", err)
		}
		if !actor.canSee(sale.OrganizationID) {
			return notFound("Sale")
		}
		if sale.ItemID != itemID || !sale.Quantity.Equal(qty) {
			return conflict("Sale does not match: stored item %s, quantity %s", sale.ItemID, sale.Quantity)
		}
		orgID = sale.OrganizationID

		if err := s.sales.DeleteTx(ctx, tx, saleID); err != nil {
			if repository.IsNotFound(err) {
				return notFound("Sale")
			}
			return storeErr("Failed to delete sale", err)
		}
		updated, err = s.applyDelta(ctx, tx, item, model.MovementSaleDelete, qty, sale, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Invalidate(ctx, orgID)
	return &dto.MutateSaleResponse{Success: true, UpdatedQuantity: updated}, nil
}

// ── List ──────────────────────────────────────────────────────────────────────

func (s *saleService) List(ctx context.Context, actor Actor, q dto.SaleListQuery) (*dto.SaleListResponse, error) {
	filter := repository.SaleFilter{}
	if strings.TrimSpace(q.Date) != "" {
		d, err := parseDayOr("date", q.Date, "")
		if err != nil {
			return nil, err
		}
		filter.Date = &d
	}
	org, err := actor.scopeOrganization(q.OrganizationID)
	if err != nil {
		return nil, err
	}
	filter.OrganizationID = org
	if filter.Branch, err = repository.ParseBranchFilter(q.BranchID); err != nil {
		return nil, invalid("branch_id", "%s", err.Error())
	}

	sales, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, storeErr("Failed to fetch sales", err)
	}
	out := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Success: true, Sales: out}, nil
}
