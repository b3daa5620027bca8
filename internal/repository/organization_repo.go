package repository

import (
	"context"

	"stockbook/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*model.Organization, error)
	// ListScheduled returns organizations with an opening or closing time set.
	ListScheduled(ctx context.Context) ([]model.Organization, error)
	Update(ctx context.Context, o *model.Organization) error
	Create(ctx context.Context, o *model.Organization) error
}

type organizationRepo struct{ db *gorm.DB }

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var o model.Organization
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return &o, err
}

func (r *organizationRepo) FindBySubdomain(ctx context.Context, subdomain string) (*model.Organization, error) {
	var o model.Organization
	err := r.db.WithContext(ctx).Where("subdomain = ?", subdomain).First(&o).Error
	return &o, err
}

func (r *organizationRepo) ListScheduled(ctx context.Context) ([]model.Organization, error) {
	var orgs []model.Organization
	err := r.db.WithContext(ctx).
		Where("opening_time IS NOT NULL OR closing_time IS NOT NULL").
		Find(&orgs).Error
	return orgs, err
}

func (r *organizationRepo) Update(ctx context.Context, o *model.Organization) error {
	err := r.db.WithContext(ctx).Model(&model.Organization{}).Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"name":          o.Name,
			"slug":          o.Slug,
			"subdomain":     o.Subdomain,
			"brand_color":   o.BrandColor,
			"logo_url":      o.LogoURL,
			"business_type": o.BusinessType,
			"opening_time":  o.OpeningTime,
			"closing_time":  o.ClosingTime,
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
	return translateUnique(err)
}

func (r *organizationRepo) Create(ctx context.Context, o *model.Organization) error {
	return translateUnique(r.db.WithContext(ctx).Create(o).Error)
}
