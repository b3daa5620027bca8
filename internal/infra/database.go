package infra

import (
	"fmt"
	"time"

	"stockbook/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and installs the
// OpenTelemetry tracing plugin. Schema changes are applied by RunMigrations.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		// tracing is optional; a failed plugin must not block startup
		log.Warn().Err(err).Msg("otelgorm plugin not installed")
	}
	return db, nil
}

// RunMigrations creates or updates every table, then applies the idempotent
// SQL patches that AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Organization{},
		&model.Branch{},
		&model.Profile{},
		&model.Item{},
		&model.Sale{},
		&model.OpeningStock{},
		&model.ClosingStock{},
		&model.Restocking{},
		&model.BranchTransfer{},
		&model.StockMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// snapshotKeyIndex keeps one opening/closing row per (item, date, branch);
// a NULL branch is folded to the nil UUID so organization-wide rows collide too.
const snapshotKeyIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_key
    ON %[1]s (item_id, date, COALESCE(branch_id, '00000000-0000-0000-0000-000000000000'::uuid))`

// applySchemaPatches runs DDL that AutoMigrate cannot handle on its own
// (expression indexes, check constraints). Every statement is idempotent.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"opening_stock key", fmt.Sprintf(snapshotKeyIndex, model.SnapshotOpening.Table())},
		{"closing_stock key", fmt.Sprintf(snapshotKeyIndex, model.SnapshotClosing.Table())},
		{"case-insensitive profile email", `CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email_lower
    ON profiles (LOWER(email))`},
		{"items quantity non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_items_quantity_non_negative') THEN
    ALTER TABLE items ADD CONSTRAINT chk_items_quantity_non_negative CHECK (quantity >= 0);
  END IF;
END $$`},
		{"sales by date", `CREATE INDEX IF NOT EXISTS idx_sales_org_date ON sales (organization_id, date)`},
		{"movements by item", `CREATE INDEX IF NOT EXISTS idx_stock_movements_item_created
    ON stock_movements (item_id, created_at DESC)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
