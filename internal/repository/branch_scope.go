package repository

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchPolicy decides whether branch-less (legacy) rows are returned alongside
// rows of the requested branch. Every call site picks one explicitly.
type BranchPolicy int

const (
	// Permissive: a branch filter also matches rows with no branch.
	Permissive BranchPolicy = iota
	// Strict: a branch filter matches that branch only.
	Strict
)

func (p BranchPolicy) String() string {
	if p == Strict {
		return "strict"
	}
	return "permissive"
}

// BranchMode is what the caller asked for.
type BranchMode int

const (
	BranchAll BranchMode = iota
	BranchOnly
	BranchUnassigned
)

// UnassignedSentinels are query values that request branch-less rows only.
var UnassignedSentinels = []string{"none", "null"}

// BranchFilter is a parsed branch query parameter.
type BranchFilter struct {
	Mode     BranchMode
	BranchID uuid.UUID
}

// AllBranches is the zero filter.
var AllBranches = BranchFilter{Mode: BranchAll}

// ForBranch builds a filter from an optional branch id; nil means the unassigned bucket.
func ForBranch(id *uuid.UUID) BranchFilter {
	if id == nil {
		return BranchFilter{Mode: BranchUnassigned}
	}
	return BranchFilter{Mode: BranchOnly, BranchID: *id}
}

// ParseBranchFilter reads a raw query value: "" = all, a sentinel = unassigned, else a UUID.
func ParseBranchFilter(raw string) (BranchFilter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AllBranches, nil
	}
	for _, s := range UnassignedSentinels {
		if strings.EqualFold(raw, s) {
			return BranchFilter{Mode: BranchUnassigned}, nil
		}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return AllBranches, fmt.Errorf("invalid branch_id %q", raw)
	}
	return BranchFilter{Mode: BranchOnly, BranchID: id}, nil
}

// Clause renders the WHERE fragment for column under policy.
// ok is false when no condition applies.
func (f BranchFilter) Clause(column string, policy BranchPolicy) (query string, args []interface{}, ok bool) {
	switch f.Mode {
	case BranchUnassigned:
		return column + " IS NULL", nil, true
	case BranchOnly:
		if policy == Permissive {
			return "(" + column + " = ? OR " + column + " IS NULL)", []interface{}{f.BranchID}, true
		}
		return column + " = ?", []interface{}{f.BranchID}, true
	default:
		return "", nil, false
	}
}

// Scope adapts Clause to a GORM scope.
func (f BranchFilter) Scope(column string, policy BranchPolicy) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		q, args, ok := f.Clause(column, policy)
		if !ok {
			return db
		}
		return db.Where(q, args...)
	}
}
