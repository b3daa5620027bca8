package service_test

import (
	"context"
	"sort"
	"time"

	"stockbook/internal/model"
	"stockbook/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. Reads return copies so services see the same
// detachment they would get from the database.

type stubItemRepo struct {
	items map[uuid.UUID]*model.Item
}

func newStubItemRepo(items ...model.Item) *stubItemRepo {
	r := &stubItemRepo{items: make(map[uuid.UUID]*model.Item)}
	for i := range items {
		it := items[i]
		r.items[it.ID] = &it
	}
	return r
}

func (r *stubItemRepo) get(id uuid.UUID) (*model.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	return r.get(id)
}

func (r *stubItemRepo) FindForUpdateTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Item, error) {
	return r.get(id)
}

func (r *stubItemRepo) List(_ context.Context, org *uuid.UUID) ([]model.Item, error) {
	var out []model.Item
	for _, it := range r.items {
		if org != nil && (it.OrganizationID == nil || *it.OrganizationID != *org) {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubItemRepo) ApplyDeltaTx(_ context.Context, _ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	it, ok := r.items[id]
	if !ok || it.Quantity.Add(delta).IsNegative() {
		return repository.ErrStockGuard
	}
	it.Quantity = it.Quantity.Add(delta)
	return nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

func (r *stubItemRepo) qty(id uuid.UUID) decimal.Decimal { return r.items[id].Quantity }

var _ repository.ItemRepository = (*stubItemRepo)(nil)

type stubSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
	// onSum runs at the start of SumByItem when set
	onSum func()
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) CreateTx(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByIDTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) UpdateTx(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if _, ok := r.sales[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) DeleteTx(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.sales[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.sales, id)
	return nil
}

func (r *stubSaleRepo) List(_ context.Context, f repository.SaleFilter) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if f.Date != nil && s.Date != *f.Date {
			continue
		}
		if f.OrganizationID != nil && (s.OrganizationID == nil || *s.OrganizationID != *f.OrganizationID) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSaleRepo) SumByItem(_ context.Context, date model.Day, org *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	if r.onSum != nil {
		r.onSum()
	}
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, s := range r.sales {
		if s.Date != date || (org != nil && (s.OrganizationID == nil || *s.OrganizationID != *org)) {
			continue
		}
		out[s.ItemID] = out[s.ItemID].Add(s.Quantity)
	}
	return out, nil
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

type stubProfileRepo struct {
	profiles map[uuid.UUID]*model.Profile
}

func newStubProfileRepo(ps ...model.Profile) *stubProfileRepo {
	r := &stubProfileRepo{profiles: make(map[uuid.UUID]*model.Profile)}
	for i := range ps {
		p := ps[i]
		r.profiles[p.ID] = &p
	}
	return r
}

func (r *stubProfileRepo) Create(_ context.Context, p *model.Profile) error {
	for _, existing := range r.profiles {
		if existing.Email == p.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *stubProfileRepo) FindByEmail(_ context.Context, email string) (*model.Profile, error) {
	for _, p := range r.profiles {
		if p.Email == email && p.Active {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProfileRepo) ListByOrganization(_ context.Context, org uuid.UUID) ([]model.Profile, error) {
	var out []model.Profile
	for _, p := range r.profiles {
		if p.OrganizationID != nil && *p.OrganizationID == org {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ repository.ProfileRepository = (*stubProfileRepo)(nil)

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ context.Context, _ *gorm.DB, m *model.StockMovement) error {
	m.ID = uuid.New()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, _ repository.MovementFilter) ([]model.StockMovement, int64, error) {
	return r.movements, int64(len(r.movements)), nil
}

var _ repository.MovementRepository = (*stubMovementRepo)(nil)

type stubStockRecordRepo struct {
	records map[model.SnapshotKind][]*model.StockRecord
	clock   time.Time
}

func newStubStockRecordRepo() *stubStockRecordRepo {
	return &stubStockRecordRepo{
		records: make(map[model.SnapshotKind][]*model.StockRecord),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func sameBranch(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *stubStockRecordRepo) CreateTx(_ context.Context, _ *gorm.DB, kind model.SnapshotKind, rec *model.StockRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	// strictly increasing timestamps keep "newest wins" deterministic
	r.clock = r.clock.Add(time.Second)
	rec.CreatedAt = r.clock
	cp := *rec
	r.records[kind] = append(r.records[kind], &cp)
	return nil
}

func (r *stubStockRecordRepo) FindByIDTx(_ context.Context, _ *gorm.DB, kind model.SnapshotKind, id uuid.UUID) (*model.StockRecord, error) {
	for _, rec := range r.records[kind] {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStockRecordRepo) UpsertTx(ctx context.Context, tx *gorm.DB, kind model.SnapshotKind, rec *model.StockRecord) error {
	for _, existing := range r.records[kind] {
		if existing.ItemID == rec.ItemID && existing.Date == rec.Date && sameBranch(existing.BranchID, rec.BranchID) {
			existing.Quantity = rec.Quantity
			existing.Notes = rec.Notes
			existing.RecordedBy = rec.RecordedBy
			*rec = *existing
			return nil
		}
	}
	return r.CreateTx(ctx, tx, kind, rec)
}

func (r *stubStockRecordRepo) DeleteTx(_ context.Context, _ *gorm.DB, kind model.SnapshotKind, id uuid.UUID) error {
	recs := r.records[kind]
	for i, rec := range recs {
		if rec.ID == id {
			r.records[kind] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubStockRecordRepo) List(_ context.Context, kind model.SnapshotKind, f repository.StockRecordFilter) ([]model.StockRecord, error) {
	var out []model.StockRecord
	for _, rec := range r.records[kind] {
		if f.Date != nil && rec.Date != *f.Date {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (r *stubStockRecordRepo) LatestByItem(_ context.Context, kind model.SnapshotKind, date model.Day, _ *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal)
	newest := make(map[uuid.UUID]time.Time)
	for _, rec := range r.records[kind] {
		if rec.Date != date {
			continue
		}
		if t, ok := newest[rec.ItemID]; !ok || rec.CreatedAt.After(t) {
			newest[rec.ItemID] = rec.CreatedAt
			out[rec.ItemID] = rec.Quantity
		}
	}
	return out, nil
}

func (r *stubStockRecordRepo) Count(_ context.Context, kind model.SnapshotKind, date model.Day, _ *uuid.UUID) (int64, error) {
	var n int64
	for _, rec := range r.records[kind] {
		if rec.Date == date {
			n++
		}
	}
	return n, nil
}

var _ repository.StockRecordRepository = (*stubStockRecordRepo)(nil)

type stubOrgRepo struct {
	orgs map[uuid.UUID]*model.Organization
	// updateErr is returned by Update when set
	updateErr error
}

func newStubOrgRepo(orgs ...model.Organization) *stubOrgRepo {
	r := &stubOrgRepo{orgs: make(map[uuid.UUID]*model.Organization)}
	for i := range orgs {
		o := orgs[i]
		r.orgs[o.ID] = &o
	}
	return r
}

func (r *stubOrgRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrgRepo) FindBySubdomain(_ context.Context, sub string) (*model.Organization, error) {
	for _, o := range r.orgs {
		if o.Subdomain != nil && *o.Subdomain == sub {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrgRepo) ListScheduled(_ context.Context) ([]model.Organization, error) {
	var out []model.Organization
	for _, o := range r.orgs {
		if o.OpeningTime != nil || o.ClosingTime != nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrgRepo) Update(_ context.Context, o *model.Organization) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := *o
	r.orgs[o.ID] = &cp
	return nil
}

func (r *stubOrgRepo) Create(_ context.Context, o *model.Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	r.orgs[o.ID] = &cp
	return nil
}

var _ repository.OrganizationRepository = (*stubOrgRepo)(nil)

type stubBranchRepo struct {
	branches map[uuid.UUID]*model.Branch
}

func newStubBranchRepo(bs ...model.Branch) *stubBranchRepo {
	r := &stubBranchRepo{branches: make(map[uuid.UUID]*model.Branch)}
	for i := range bs {
		b := bs[i]
		r.branches[b.ID] = &b
	}
	return r
}

func (r *stubBranchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBranchRepo) ListByOrganization(_ context.Context, org uuid.UUID) ([]model.Branch, error) {
	var out []model.Branch
	for _, b := range r.branches {
		if b.OrganizationID == org {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBranchRepo) Create(_ context.Context, b *model.Branch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.branches[b.ID] = &cp
	return nil
}

var _ repository.BranchRepository = (*stubBranchRepo)(nil)

type stubTransferRepo struct {
	transfers  []model.BranchTransfer
	lastFilter repository.TransferFilter
}

func (r *stubTransferRepo) Create(_ context.Context, t *model.BranchTransfer) error {
	t.ID = uuid.New()
	r.transfers = append(r.transfers, *t)
	return nil
}

func (r *stubTransferRepo) List(_ context.Context, f repository.TransferFilter) ([]model.BranchTransfer, error) {
	r.lastFilter = f
	return r.transfers, nil
}

var _ repository.TransferRepository = (*stubTransferRepo)(nil)

// spyLedger counts invalidations.
type spyLedger struct{ calls int }

func (l *spyLedger) Invalidate(context.Context, *uuid.UUID) { l.calls++ }

// ── Fixtures ──────────────────────────────────────────────────────────────────

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
