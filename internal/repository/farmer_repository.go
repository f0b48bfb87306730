package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HGakash/agrihub/internal/model"
)

type FarmerRepository struct {
	db *gorm.DB
}

func NewFarmerRepository(db *gorm.DB) *FarmerRepository {
	return &FarmerRepository{db: db}
}

func (r *FarmerRepository) Create(ctx context.Context, farmer *model.Farmer) error {
	return translateError(r.db.WithContext(ctx).Create(farmer).Error)
}

func (r *FarmerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Farmer, error) {
	var farmer model.Farmer
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&farmer).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (r *FarmerRepository) GetByEmail(ctx context.Context, email string) (*model.Farmer, error) {
	var farmer model.Farmer
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&farmer).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (r *FarmerRepository) List(ctx context.Context) ([]model.Farmer, error) {
	var farmers []model.Farmer
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&farmers).Error; err != nil {
		return nil, err
	}
	return farmers, nil
}

func (r *FarmerRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Farmer, error) {
	if len(ids) == 0 {
		return []model.Farmer{}, nil
	}
	var farmers []model.Farmer
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&farmers).Error; err != nil {
		return nil, err
	}
	return farmers, nil
}
