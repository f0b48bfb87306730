package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HGakash/agrihub/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// Transition moves a pending contract owned by farmerID to status in a single
// conditional UPDATE and returns the updated row read in the same transaction.
// It returns nil when nothing matched: the contract is missing, belongs to
// another farmer, or has already left pending.
func (r *ContractRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	farmerID uuid.UUID,
	status model.ContractStatus,
) (*model.Contract, error) {
	var updated *model.Contract
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE contracts
			SET status = ?, updated_at = ?
			WHERE id = ?
				AND farmer_id = ?
				AND status = ?
		`, status, time.Now().UTC(), id, farmerID, model.ContractStatusPending)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}

		var contract model.Contract
		if err := tx.Where("id = ?", id).Take(&contract).Error; err != nil {
			return err
		}
		updated = &contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByFarmer returns the farmer's contracts, optionally narrowed to one status.
func (r *ContractRepository) ListByFarmer(
	ctx context.Context,
	farmerID uuid.UUID,
	status *model.ContractStatus,
) ([]model.Contract, error) {
	query := r.db.WithContext(ctx).Where("farmer_id = ?", farmerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var contracts []model.Contract
	if err := query.Order("created_at ASC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListByDealer returns contracts created by dealerID. An empty companyName
// disables the company filter.
func (r *ContractRepository) ListByDealer(
	ctx context.Context,
	dealerID uuid.UUID,
	companyName string,
) ([]model.Contract, error) {
	query := r.db.WithContext(ctx).Where("created_by = ?", dealerID)
	if companyName != "" {
		query = query.Where("company_name = ?", companyName)
	}

	var contracts []model.Contract
	if err := query.Order("created_at ASC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}
