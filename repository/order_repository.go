package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/withjoono/grinalda-sub000/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByMerchantUID(ctx context.Context, merchantUID string) (*models.Order, error)
	// FindByMerchantUIDForUpdate acquires a row lock on the order so that
	// concurrent verification attempts for the same fingerprint serialize.
	// Must be called inside a Store.Transaction.
	FindByMerchantUIDForUpdate(ctx context.Context, merchantUID string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
}

type gormOrderRepo struct {
	db *gorm.DB
}

func (r *gormOrderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *gormOrderRepo) FindByMerchantUID(ctx context.Context, merchantUID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("merchant_uid = ?", merchantUID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepo) FindByMerchantUIDForUpdate(ctx context.Context, merchantUID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("merchant_uid = ?", merchantUID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepo) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}
