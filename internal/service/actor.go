package service

import (
	"context"
	"strings"
	"time"

	"stockbook/internal/dto"
	"stockbook/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor is the authenticated caller, built from JWT claims by the handler layer.
type Actor struct {
	UserID         uuid.UUID
	Email          string
	Role           string
	OrganizationID *uuid.UUID
	BranchID       *uuid.UUID
}

func (a Actor) IsSuperAdmin() bool { return a.Role == model.RoleSuperAdmin }

func (a Actor) IsTenantAdmin() bool { return model.IsTenantAdmin(a.Role) }

// canSee reports whether the actor may read or write rows owned by org.
// Superadmins see everything; everyone else only their own organization.
func (a Actor) canSee(org *uuid.UUID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	if org == nil || a.OrganizationID == nil {
		return org == nil
	}
	return *org == *a.OrganizationID
}

// scopeOrganization picks the organization a listing runs against.
// Tenant users are pinned to their own organization whatever they request.
func (a Actor) scopeOrganization(requested string) (*uuid.UUID, error) {
	if !a.IsSuperAdmin() {
		return a.OrganizationID, nil
	}
	return optionalID("organization_id", &requested)
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, invalid(field, "Invalid %s", field)
	}
	return id, nil
}

// optionalID treats nil and blank as absent.
func optionalID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDayOr parses raw or falls back to def when raw is blank.
func parseDayOr(field, raw string, def model.Day) (model.Day, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	d, err := model.ParseDay(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid(field, "Invalid %s, expected YYYY-MM-DD", field)
	}
	return d, nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

const tsLayout = "2006-01-02T15:04:05Z"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

// ── Mapping ───────────────────────────────────────────────────────────────────

func saleToResponse(s *model.Sale) dto.SaleResponse {
	resp := dto.SaleResponse{
		ID:             s.ID.String(),
		ItemID:         s.ItemID.String(),
		Quantity:       s.Quantity,
		PricePerUnit:   s.PricePerUnit,
		TotalPrice:     s.TotalPrice,
		Date:           s.Date,
		RecordedBy:     s.RecordedBy.String(),
		Description:    s.Description,
		OrganizationID: idString(s.OrganizationID),
		BranchID:       idString(s.BranchID),
		CreatedAt:      ts(s.CreatedAt),
	}
	if s.Item != nil {
		resp.ItemName = s.Item.Name
	}
	return resp
}

func recordToResponse(r *model.StockRecord) dto.StockRecordResponse {
	resp := dto.StockRecordResponse{
		ID:             r.ID.String(),
		ItemID:         r.ItemID.String(),
		Quantity:       r.Quantity,
		Date:           r.Date,
		BranchID:       idString(r.BranchID),
		OrganizationID: idString(r.OrganizationID),
		RecordedBy:     r.RecordedBy.String(),
		Notes:          r.Notes,
		CreatedAt:      ts(r.CreatedAt),
	}
	if r.Item != nil {
		resp.ItemName = r.Item.Name
	}
	return resp
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:             m.ID.String(),
		ItemID:         m.ItemID.String(),
		Kind:           m.Kind,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceID:    idString(m.ReferenceID),
		BranchID:       idString(m.BranchID),
		CreatedAt:      ts(m.CreatedAt),
	}
	if m.Item != nil {
		resp.ItemName = m.Item.Name
	}
	return resp
}

func organizationToResponse(o *model.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		ID:           o.ID.String(),
		Name:         o.Name,
		Slug:         o.Slug,
		Subdomain:    o.Subdomain,
		BrandColor:   o.BrandColor,
		LogoURL:      o.LogoURL,
		BusinessType: o.BusinessType,
		OpeningTime:  o.OpeningTime,
		ClosingTime:  o.ClosingTime,
		CreatedAt:    ts(o.CreatedAt),
		UpdatedAt:    ts(o.UpdatedAt),
	}
}

func transferToResponse(t *model.BranchTransfer) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:             t.ID.String(),
		ItemID:         t.ItemID.String(),
		FromBranchID:   t.FromBranchID.String(),
		ToBranchID:     t.ToBranchID.String(),
		Quantity:       t.Quantity,
		Date:           t.Date,
		OrganizationID: t.OrganizationID.String(),
		PerformedBy:    t.PerformedBy.String(),
		Notes:          t.Notes,
		CreatedAt:      ts(t.CreatedAt),
	}
	if t.Item != nil {
		resp.ItemName = t.Item.Name
		resp.ItemUnit = t.Item.Unit
	}
	if t.FromBranch != nil {
		resp.FromBranchName = t.FromBranch.Name
	}
	if t.ToBranch != nil {
		resp.ToBranchName = t.ToBranch.Name
	}
	if t.Performer != nil {
		resp.PerformerEmail = t.Performer.Email
	}
	return resp
}

func userToResponse(p *model.Profile) dto.UserResponse {
	return dto.UserResponse{
		ID:             p.ID.String(),
		Email:          p.Email,
		FullName:       p.FullName,
		Role:           p.Role,
		OrganizationID: idString(p.OrganizationID),
		BranchID:       idString(p.BranchID),
	}
}

// movement builds a ledger entry for a delta applied to before.
func movement(kind string, itemID uuid.UUID, delta, before decimal.Decimal, ref *uuid.UUID) *model.StockMovement {
	return &model.StockMovement{
		ItemID:         itemID,
		Kind:           kind,
		Quantity:       delta,
		QuantityBefore: before,
		QuantityAfter:  before.Add(delta),
		ReferenceID:    ref,
	}
}
