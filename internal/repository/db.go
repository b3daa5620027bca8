package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrStockGuard is returned when a conditional quantity update matched no row,
// meaning the change would have taken the item below zero.
var ErrStockGuard = errors.New("stock update rejected: quantity would go negative")

// Unique-constraint sentinels translated from Postgres error 23505.
var (
	ErrDuplicateSlug      = errors.New("organization slug already exists")
	ErrDuplicateSubdomain = errors.New("subdomain already taken")
	ErrDuplicateEmail     = errors.New("email already registered")
)

// uniqueIndexes maps GORM-generated index names to their sentinel.
var uniqueIndexes = map[string]error{
	"idx_organizations_slug":      ErrDuplicateSlug,
	"idx_organizations_subdomain": ErrDuplicateSubdomain,
	"idx_profiles_email":          ErrDuplicateEmail,
	"idx_profiles_email_lower":    ErrDuplicateEmail,
}

// use returns tx when the caller is inside a transaction, db otherwise.
func use(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// IsNotFound reports whether err means "no row".
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if sentinel, ok := uniqueIndexes[pgErr.ConstraintName]; ok {
		return sentinel
	}
	return err
}
