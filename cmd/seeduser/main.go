// seeduser creates a demo organization with one branch, a superadmin and an
// organization admin. Re-running it resets the passwords.
// Usage: go run ./cmd/seeduser
package main

import (
	"context"
	"os"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/infra"
	"stockbook/internal/model"
	"stockbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const demoPassword = "stockbook2026"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), service.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	err = db.WithContext(context.Background()).Transaction(func(tx *gorm.DB) error {
		sub := "demo"
		org := model.Organization{Name: "Demo Bakery", Slug: "demo-bakery", Subdomain: &sub}
		if err := tx.Where(model.Organization{Slug: org.Slug}).FirstOrCreate(&org).Error; err != nil {
			return err
		}
		branch := model.Branch{OrganizationID: org.ID, Name: "Main"}
		if err := tx.Where(model.Branch{OrganizationID: org.ID, Name: branch.Name}).FirstOrCreate(&branch).Error; err != nil {
			return err
		}
		for _, it := range []model.Item{
			{OrganizationID: &org.ID, Name: "Flour", Unit: "kg", Quantity: decimal.NewFromInt(100)},
			{OrganizationID: &org.ID, Name: "Sugar", Unit: "kg", Quantity: decimal.NewFromInt(25)},
		} {
			it := it
			if err := tx.Where(model.Item{OrganizationID: it.OrganizationID, Name: it.Name}).FirstOrCreate(&it).Error; err != nil {
				return err
			}
		}

		users := []model.Profile{
			{Email: "root@stockbook.local", Role: model.RoleSuperAdmin, PasswordHash: string(hash), Active: true},
			{Email: "admin@demo.local", Role: model.RoleAdmin, PasswordHash: string(hash), OrganizationID: &org.ID, Active: true},
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role", "organization_id", "active"}),
		}).Create(&users).Error
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Str("password", demoPassword).Msg("seeded root@stockbook.local and admin@demo.local")
}
