package service

import (
	"context"
	"time"

	"stockbook/internal/dto"
	"stockbook/internal/model"
	"stockbook/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportService computes the daily opening / sales / closing reconciliation.
// Compute never writes to the database.
type ReportService interface {
	Compute(ctx context.Context, date model.Day, organizationID *uuid.UUID) (*dto.StockReportResponse, error)
	// ForActor parses the query and pins tenants to their own organization.
	ForActor(ctx context.Context, actor Actor, q dto.ReportQuery) (*dto.StockReportResponse, error)
}

type reportService struct {
	items   repository.ItemRepository
	sales   repository.SaleRepository
	records repository.StockRecordRepository
	cache   *ReportCache
	loc     *time.Location
}

func NewReportService(
	items repository.ItemRepository,
	sales repository.SaleRepository,
	records repository.StockRecordRepository,
	cache *ReportCache,
) ReportService {
	return &reportService{items: items, sales: sales, records: records, cache: cache, loc: time.Local}
}

func (s *reportService) Compute(ctx context.Context, date model.Day, organizationID *uuid.UUID) (*dto.StockReportResponse, error) {
	if date == "" {
		date = model.Today(s.loc)
	}
	cached, cacheKey, ok := s.cache.Get(ctx, organizationID, date)
	if ok {
		return cached, nil
	}

	items, err := s.items.List(ctx, organizationID)
	if err != nil {
		return nil, storeErr("Failed to fetch items", err)
	}
	// Previous day's closing snapshots; the newest record wins when several branches wrote one
	closing, err := s.records.LatestByItem(ctx, model.SnapshotClosing, date.Prev(), organizationID)
	if err != nil {
		return nil, storeErr("Failed to fetch closing stock", err)
	}
	sold, err := s.sales.SumByItem(ctx, date, organizationID)
	if err != nil {
		return nil, storeErr("Failed to fetch sales", err)
	}

	resp := &dto.StockReportResponse{Success: true, Date: date, Report: make([]dto.ReportRow, 0, len(items))}
	for _, it := range items {
		resp.Report = append(resp.Report, reconcile(it, closing, sold))
	}

	s.cache.Set(ctx, cacheKey, resp)
	return resp, nil
}

func (s *reportService) ForActor(ctx context.Context, actor Actor, q dto.ReportQuery) (*dto.StockReportResponse, error) {
	date, err := parseDayOr("date", q.Date, model.Today(s.loc))
	if err != nil {
		return nil, err
	}
	org, err := actor.scopeOrganization(q.OrganizationID)
	if err != nil {
		return nil, err
	}
	return s.Compute(ctx, date, org)
}

// reconcile builds one report row. Items without a prior closing snapshot
// fall back to their live quantity as opening stock.
func reconcile(it model.Item, prevClosing, sold map[uuid.UUID]decimal.Decimal) dto.ReportRow {
	opening, ok := prevClosing[it.ID]
	if !ok {
		opening = it.Quantity
	}
	sales := decimal.Zero
	if v, ok := sold[it.ID]; ok {
		sales = v
	}
	closing := opening.Sub(sales)
	if closing.IsNegative() {
		closing = decimal.Zero
	}
	return dto.ReportRow{
		ItemID:          it.ID.String(),
		ItemName:        it.Name,
		ItemUnit:        it.Unit,
		CurrentQuantity: it.Quantity,
		OpeningStock:    opening,
		Sales:           sales,
		ClosingStock:    closing,
	}
}
