package repository

import (
	"context"

	"stockbook/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(ctx context.Context, p *model.Profile) error
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]model.Profile, error)
}

type profileRepo struct{ db *gorm.DB }

func NewProfileRepository(db *gorm.DB) ProfileRepository { return &profileRepo{db: db} }

func (r *profileRepo) Create(ctx context.Context, p *model.Profile) error {
	return translateUnique(r.db.WithContext(ctx).Create(p).Error)
}

func (r *profileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	// Case-insensitive email match, active users only
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND active = true", email).
		First(&p).Error
	return &p, err
}

func (r *profileRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *profileRepo) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]model.Profile, error) {
	var users []model.Profile
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND active = true", organizationID).
		Order("email ASC").
		Find(&users).Error
	return users, err
}
