package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockbook/internal/dto"
	"stockbook/internal/model"
	"stockbook/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AutoNote marks snapshots written by FinalizeDay.
const AutoNote = "auto"

// SnapshotService records opening / closing snapshots and restocking events.
type SnapshotService interface {
	// Record upserts an opening or closing snapshot on (item, date, branch).
	Record(ctx context.Context, actor Actor, kind model.SnapshotKind, req dto.RecordStockRequest) (*dto.RecordStockResponse, error)
	Restock(ctx context.Context, actor Actor, req dto.RecordStockRequest) (*dto.RecordStockResponse, error)
	DeleteRestocking(ctx context.Context, actor Actor, id uuid.UUID) (*dto.MutateSaleResponse, error)
	List(ctx context.Context, actor Actor, kind model.SnapshotKind, q dto.StockListQuery) ([]dto.StockRecordResponse, error)
	Movements(ctx context.Context, actor Actor, q dto.MovementQuery) (*dto.MovementListResponse, error)
	// Finalize runs FinalizeDay for the caller's organization.
	Finalize(ctx context.Context, actor Actor, kind model.SnapshotKind, req dto.FinalizeRequest) (*dto.FinalizeResponse, error)
	// FinalizeDay persists the report's opening or closing figures as organization-wide snapshots.
	FinalizeDay(ctx context.Context, kind model.SnapshotKind, organizationID *uuid.UUID, date model.Day, recordedBy uuid.UUID) (int, error)
}

type snapshotService struct {
	records   repository.StockRecordRepository
	items     repository.ItemRepository
	movements repository.MovementRepository
	reports   ReportService
	ledger    LedgerObserver
	loc       *time.Location
}

func NewSnapshotService(
	records repository.StockRecordRepository,
	items repository.ItemRepository,
	movements repository.MovementRepository,
	reports ReportService,
	ledger LedgerObserver,
) SnapshotService {
	if ledger == nil {
		ledger = noopLedger{}
	}
	return &snapshotService{
		records:   records,
		items:     items,
		movements: movements,
		reports:   reports,
		ledger:    ledger,
		loc:       time.Local,
	}
}

type stockInput struct {
	itemID   uuid.UUID
	date     model.Day
	branchID *uuid.UUID
}

func (s *snapshotService) parseInput(actor Actor, req dto.RecordStockRequest) (stockInput, error) {
	var in stockInput
	if strings.TrimSpace(req.ItemID) == "" || strings.TrimSpace(req.Date) == "" {
		return in, errMissingFields
	}
	var err error
	if in.itemID, err = parseID("item_id", req.ItemID); err != nil {
		return in, err
	}
	if in.date, err = parseDayOr("date", req.Date, ""); err != nil {
		return in, err
	}
	if in.branchID, err = optionalID("branch_id", req.BranchID); err != nil {
		return in, err
	}
	if in.branchID == nil {
		in.branchID = actor.BranchID
	}
	return in, nil
}

func (s *snapshotService) findItem(ctx context.Context, tx *gorm.DB, actor Actor, id uuid.UUID, lock bool) (*model.Item, error) {
	var (
		item *model.Item
		err  error
	)
	if lock {
		item, err = s.items.FindForUpdateTx(ctx, tx, id)
	} else {
		item, err = s.items.FindByID(ctx, id)
	}
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

// ── Record ────────────────────────────────────────────────────────────────────

func (s *snapshotService) Record(ctx context.Context, actor Actor, kind model.SnapshotKind, req dto.RecordStockRequest) (*dto.RecordStockResponse, error) {
	if kind != model.SnapshotOpening && kind != model.SnapshotClosing {
		return nil, invalid("kind", "Unknown snapshot kind %q", kind)
	}
	in, err := s.parseInput(actor, req)
	if err != nil {
		return nil, err
	}
	if req.Quantity.IsNegative() {
		return nil, invalid("quantity", "quantity cannot be negative")
	}
	item, err := s.findItem(ctx, nil, actor, in.itemID, false)
	if err != nil {
		return nil, err
	}

	var rec *model.StockRecord
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		rec, err = s.upsert(ctx, tx, kind, item, in, req.Quantity, actor.UserID, req.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Invalidate(ctx, item.OrganizationID)
	rec.Item = item
	return &dto.RecordStockResponse{Success: true, Record: recordToResponse(rec)}, nil
}

// upsert writes the one snapshot allowed per (item, date, branch).
func (s *snapshotService) upsert(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, item *model.Item, in stockInput, qty decimal.Decimal, by uuid.UUID, notes *string) (*model.StockRecord, error) {
	rec := &model.StockRecord{
		ItemID:         in.itemID,
		Quantity:       qty,
		Date:           in.date,
		BranchID:       in.branchID,
		OrganizationID: item.OrganizationID,
		RecordedBy:     by,
		Notes:          notes,
	}
	if err := s.records.UpsertTx(ctx, tx, kind, rec); err != nil {
		return nil, storeErr("Failed to record stock", err)
	}
	return rec, nil
}

// ── Restocking ────────────────────────────────────────────────────────────────

func (s *snapshotService) Restock(ctx context.Context, actor Actor, req dto.RecordStockRequest) (*dto.RecordStockResponse, error) {
	in, err := s.parseInput(actor, req)
	if err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, invalid("quantity", "quantity must be positive")
	}

	var (
		rec     *model.StockRecord
		item    *model.Item
		updated decimal.Decimal
	)
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if item, err = s.findItem(ctx, tx, actor, in.itemID, true); err != nil {
			return err
		}
		rec = &model.StockRecord{
			ItemID:         in.itemID,
			Quantity:       req.Quantity,
			Date:           in.date,
			BranchID:       in.branchID,
			OrganizationID: item.OrganizationID,
			RecordedBy:     actor.UserID,
			Notes:          req.Notes,
		}
		if err := s.records.CreateTx(ctx, tx, model.SnapshotRestocking, rec); err != nil {
			return storeErr("Failed to record restocking", err)
		}
		updated, err = s.moveStock(ctx, tx, item, model.MovementRestock, req.Quantity, rec, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Invalidate(ctx, item.OrganizationID)
	rec.Item = item
	return &dto.RecordStockResponse{Success: true, Record: recordToResponse(rec), UpdatedQuantity: &updated}, nil
}

// DeleteRestocking reverses the restocked quantity; it fails rather than take the item below zero.
func (s *snapshotService) DeleteRestocking(ctx context.Context, actor Actor, id uuid.UUID) (*dto.MutateSaleResponse, error) {
	var (
		updated decimal.Decimal
		orgID   *uuid.UUID
	)
	err := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		rec, err := s.records.FindByIDTx(ctx, tx, model.SnapshotRestocking, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Restocking")
			}
			return storeErr("Failed to fetch restocking", err)
		}
		if !actor.canSee(rec.OrganizationID) {
			return notFound("Restocking")
		}
		item, err := s.findItem(ctx, tx, actor, rec.ItemID, true)
		if err != nil {
			return err
		}
		if item.Quantity.LessThan(rec.Quantity) {
			return negativeStock(item.Quantity)
		}
		if err := s.records.DeleteTx(ctx, tx, model.SnapshotRestocking, id); err != nil {
			return storeErr("Failed to delete restocking", err)
		}
		orgID = rec.OrganizationID
		updated, err = s.moveStock(ctx, tx, item, model.MovementRestockDelete, rec.Quantity.Neg(), rec, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Invalidate(ctx, orgID)
	return &dto.MutateSaleResponse{Success: true, UpdatedQuantity: updated}, nil
}

func (s *snapshotService) moveStock(ctx context.Context, tx *gorm.DB, item *model.Item, kind string, delta decimal.Decimal, rec *model.StockRecord, actor Actor) (decimal.Decimal, error) {
	if err := s.items.ApplyDeltaTx(ctx, tx, item.ID, delta); err != nil {
		if errors.Is(err, repository.ErrStockGuard) {
			return decimal.Zero, negativeStock(item.Quantity)
		}
		return decimal.Zero, storeErr("Failed to update item quantity", err)
	}
	m := movement(kind, item.ID, delta, item.Quantity, &rec.ID)
	m.OrganizationID = item.OrganizationID
	m.BranchID = rec.BranchID
	if actor.UserID != uuid.Nil {
		m.RecordedBy = &actor.UserID
	}
	if err := s.movements.CreateTx(ctx, tx, m); err != nil {
		return decimal.Zero, storeErr("Failed to record stock movement", err)
	}
	item.Quantity = m.QuantityAfter
	return m.QuantityAfter, nil
}

// ── Listing ───────────────────────────────────────────────────────────────────

func (s *snapshotService) List(ctx context.Context, actor Actor, kind model.SnapshotKind, q dto.StockListQuery) ([]dto.StockRecordResponse, error) {
	if !kind.Valid() {
		return nil, invalid("kind", "Unknown snapshot kind %q", kind)
	}
	filter := repository.StockRecordFilter{}
	if strings.TrimSpace(q.Date) != "" {
		d, err := parseDayOr("date", q.Date, "")
		if err != nil {
			return nil, err
		}
		filter.Date = &d
	}
	var err error
	if filter.OrganizationID, err = actor.scopeOrganization(q.OrganizationID); err != nil {
		return nil, err
	}
	if filter.ItemID, err = optionalID("item_id", &q.ItemID); err != nil {
		return nil, err
	}
	if filter.Branch, err = repository.ParseBranchFilter(q.BranchID); err != nil {
		return nil, invalid("branch_id", "%s", err.Error())
	}

	recs, err := s.records.List(ctx, kind, filter)
	if err != nil {
		return nil, storeErr("Failed to fetch stock records", err)
	}
	out := make([]dto.StockRecordResponse, 0, len(recs))
	for i := range recs {
		out = append(out, recordToResponse(&recs[i]))
	}
	return out, nil
}

func (s *snapshotService) Movements(ctx context.Context, actor Actor, q dto.MovementQuery) (*dto.MovementListResponse, error) {
	filter := repository.MovementFilter{
		OrganizationID: actor.OrganizationID,
		Kind:           q.Kind,
		Page:           q.Page,
		Limit:          q.Limit,
	}
	var err error
	if filter.ItemID, err = optionalID("item_id", &q.ItemID); err != nil {
		return nil, err
	}
	if filter.Branch, err = repository.ParseBranchFilter(q.BranchID); err != nil {
		return nil, invalid("branch_id", "%s", err.Error())
	}
	rows, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, storeErr("Failed to fetch stock movements", err)
	}
	out := make([]dto.MovementResponse, 0, len(rows))
	for i := range rows {
		out = append(out, movementToResponse(&rows[i]))
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return &dto.MovementListResponse{Data: out, Total: total, Page: page, Limit: limit}, nil
}

// ── FinalizeDay ───────────────────────────────────────────────────────────────
// Closing for day D becomes the opening fallback of D+1 through the report rule.
// Opening snapshots store the computed opening figure of D.

func (s *snapshotService) Finalize(ctx context.Context, actor Actor, kind model.SnapshotKind, req dto.FinalizeRequest) (*dto.FinalizeResponse, error) {
	if !actor.IsTenantAdmin() {
		return nil, forbidden("Forbidden: Admin access required")
	}
	if actor.OrganizationID == nil {
		return nil, invalid("", "User is not linked to an organization")
	}
	date, err := parseDayOr("date", req.Date, model.Today(s.loc))
	if err != nil {
		return nil, err
	}
	n, err := s.FinalizeDay(ctx, kind, actor.OrganizationID, date, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.FinalizeResponse{Success: true, Kind: string(kind), Date: date, Written: n}, nil
}

func (s *snapshotService) FinalizeDay(ctx context.Context, kind model.SnapshotKind, organizationID *uuid.UUID, date model.Day, recordedBy uuid.UUID) (int, error) {
	if kind != model.SnapshotOpening && kind != model.SnapshotClosing {
		return 0, invalid("kind", "Unknown snapshot kind %q", kind)
	}
	if date == "" {
		date = model.Today(s.loc)
	}
	report, err := s.reports.Compute(ctx, date, organizationID)
	if err != nil {
		return 0, err
	}
	ids := make([]uuid.UUID, 0, len(report.Report))
	for _, row := range report.Report {
		id, err := uuid.Parse(row.ItemID)
		if err != nil {
			return 0, storeErr("Failed to read report", err)
		}
		ids = append(ids, id)
	}

	note := AutoNote
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		for i, row := range report.Report {
			qty := row.ClosingStock
			if kind == model.SnapshotOpening {
				qty = row.OpeningStock
			}
			item := &model.Item{ID: ids[i], OrganizationID: organizationID}
			in := stockInput{itemID: ids[i], date: date}
			if _, err := s.upsert(ctx, tx, kind, item, in, qty, recordedBy, &note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.ledger.Invalidate(ctx, organizationID)
	return len(report.Report), nil
}
