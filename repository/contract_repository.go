package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/withjoono/grinalda-sub000/models"
)

// ContractRepository defines the interface for contract data access.
type ContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
	FindByOrderAndMember(ctx context.Context, orderID, memberID uuid.UUID) (*models.Contract, error)
	// Deactivate flips active=false on the contract row. Contracts are never
	// deleted so failed and cancelled orders keep their audit trail.
	Deactivate(ctx context.Context, contractID uuid.UUID) error
	FindActiveByMember(ctx context.Context, memberID uuid.UUID, now time.Time) ([]models.Contract, error)
}

type gormContractRepo struct {
	db *gorm.DB
}

func (r *gormContractRepo) Create(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *gormContractRepo) FindByOrderAndMember(ctx context.Context, orderID, memberID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND member_id = ?", orderID, memberID).
		First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *gormContractRepo) Deactivate(ctx context.Context, contractID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("id = ?", contractID).
		Update("active", false).Error
}

func (r *gormContractRepo) FindActiveByMember(ctx context.Context, memberID uuid.UUID, now time.Time) ([]models.Contract, error) {
	var contracts []models.Contract
	if err := r.db.WithContext(ctx).
		Where("member_id = ? AND active = ? AND contract_end > ?", memberID, true, now).
		Order("contract_start DESC").
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}
