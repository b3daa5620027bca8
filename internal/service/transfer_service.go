package service

import (
	"context"
	"strings"

	"stockbook/internal/dto"
	"stockbook/internal/model"
	"stockbook/internal/repository"

	"github.com/google/uuid"
)

// TransferService records movements of stock between branches.
// Transfers are records only: item quantities are organization-wide and never change here.
type TransferService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateTransferRequest) (*dto.TransferResponse, error)
	List(ctx context.Context, actor Actor, q dto.TransferListQuery) ([]dto.TransferResponse, error)
}

type transferService struct {
	transfers repository.TransferRepository
	items     repository.ItemRepository
	branches  repository.BranchRepository
	profiles  repository.ProfileRepository
}

func NewTransferService(
	transfers repository.TransferRepository,
	items repository.ItemRepository,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
) TransferService {
	return &transferService{transfers: transfers, items: items, branches: branches, profiles: profiles}
}

func (s *transferService) Create(ctx context.Context, actor Actor, req dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if actor.IsSuperAdmin() {
		return nil, forbidden("Superadmins cannot record transfers")
	}
	if actor.OrganizationID == nil {
		return nil, invalid("", "User is not linked to an organization")
	}
	if strings.TrimSpace(req.ItemID) == "" || strings.TrimSpace(req.FromBranchID) == "" ||
		strings.TrimSpace(req.ToBranchID) == "" || strings.TrimSpace(req.Date) == "" {
		return nil, errMissingFields
	}
	if !req.Quantity.IsPositive() {
		return nil, invalid("quantity", "quantity must be positive")
	}
	itemID, err := parseID("item_id", req.ItemID)
	if err != nil {
		return nil, err
	}
	fromID, err := parseID("from_branch_id", req.FromBranchID)
	if err != nil {
		return nil, err
	}
	toID, err := parseID("to_branch_id", req.ToBranchID)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, invalid("to_branch_id", "Source and destination branches must differ")
	}
	date, err := parseDayOr("date", req.Date, "")
	if err != nil {
		return nil, err
	}
	// Staff pinned to a branch may only send stock out of it
	if !actor.IsTenantAdmin() && actor.BranchID != nil && *actor.BranchID != fromID {
		return nil, forbidden("You can only transfer stock out of your own branch")
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Item")
		}
		return nil, storeErr("Failed to fetch item", err)
	}
	if !actor.canSee(item.OrganizationID) {
		return nil, notFound("Item")
	}
	from, err := s.branchInOrg(ctx, fromID, *actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	to, err := s.branchInOrg(ctx, toID, *actor.OrganizationID)
	if err != nil {
		return nil, err
	}

	t := &model.BranchTransfer{
		ItemID:         itemID,
		FromBranchID:   fromID,
		ToBranchID:     toID,
		Quantity:       req.Quantity,
		Date:           date,
		OrganizationID: *actor.OrganizationID,
		PerformedBy:    actor.UserID,
		Notes:          req.Notes,
	}
	if err := s.transfers.Create(ctx, t); err != nil {
		return nil, storeErr("Failed to record transfer", err)
	}
	t.Item, t.FromBranch, t.ToBranch = item, from, to
	resp := transferToResponse(t)
	return &resp, nil
}

func (s *transferService) branchInOrg(ctx context.Context, id, org uuid.UUID) (*model.Branch, error) {
	b, err := s.branches.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Branch")
		}
		return nil, storeErr("Failed to fetch branch", err)
	}
	if b.OrganizationID != org {
		return nil, notFound("Branch")
	}
	return b, nil
}

// List scopes transfers to the caller's organization. Users pinned to a branch
// only see transfers touching it; organization admins without a branch may
// narrow the list by branch_id.
func (s *transferService) List(ctx context.Context, actor Actor, q dto.TransferListQuery) ([]dto.TransferResponse, error) {
	userRaw := strings.TrimSpace(q.UserID)
	if userRaw == "" && actor.UserID != uuid.Nil {
		userRaw = actor.UserID.String()
	}
	if userRaw == "" {
		return nil, invalid("user_id", "user_id is required")
	}
	userID, err := parseID("user_id", userRaw)
	if err != nil {
		return nil, err
	}
	if userID != actor.UserID && !actor.IsTenantAdmin() {
		return nil, forbidden("You can only list your own transfers")
	}

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("User")
		}
		return nil, storeErr("Failed to fetch user", err)
	}
	if profile.Role == model.RoleSuperAdmin {
		return nil, forbidden("Superadmins cannot view transfers")
	}
	if profile.OrganizationID == nil {
		return nil, invalid("user_id", "User is not linked to an organization")
	}
	if !actor.canSee(profile.OrganizationID) {
		return nil, forbidden("Forbidden")
	}

	filter := repository.TransferFilter{OrganizationID: *profile.OrganizationID}
	// A user's own branch wins; only branch-less users may pick one
	if profile.BranchID != nil {
		filter.BranchID = profile.BranchID
	} else if filter.BranchID, err = optionalID("branch_id", &q.BranchID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.FromDate) != "" {
		d, err := parseDayOr("from_date", q.FromDate, "")
		if err != nil {
			return nil, err
		}
		filter.FromDate = &d
	}
	if strings.TrimSpace(q.ToDate) != "" {
		d, err := parseDayOr("to_date", q.ToDate, "")
		if err != nil {
			return nil, err
		}
		filter.ToDate = &d
	}

	rows, err := s.transfers.List(ctx, filter)
	if err != nil {
		return nil, storeErr("Failed to fetch transfers", err)
	}
	out := make([]dto.TransferResponse, 0, len(rows))
	for i := range rows {
		out = append(out, transferToResponse(&rows[i]))
	}
	return out, nil
}
