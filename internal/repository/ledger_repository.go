package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HGakash/agrihub/internal/model"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) RecordReceipt(ctx context.Context, receipt *model.LedgerReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *LedgerRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.LedgerReceipt, error) {
	var receipts []model.LedgerReceipt
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
