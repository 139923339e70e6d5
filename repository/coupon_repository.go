package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/withjoono/grinalda-sub000/models"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	// FindByCodeAndProduct resolves a coupon scoped to the given product.
	FindByCodeAndProduct(ctx context.Context, code string, productID uuid.UUID) (*models.Coupon, error)
	// FindByCodeGlobal resolves a coupon with no product scope.
	FindByCodeGlobal(ctx context.Context, code string) (*models.Coupon, error)
	// DecrementRemainingUses atomically decrements remaining_uses by one. The
	// guard keeps the counter non-negative; exhausted coupons return
	// gorm.ErrRecordNotFound via zero rows affected.
	DecrementRemainingUses(ctx context.Context, code string) error
}

type gormCouponRepo struct {
	db *gorm.DB
}

func (r *gormCouponRepo) FindByCodeAndProduct(ctx context.Context, code string, productID uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		Where("code = ? AND product_id = ?", code, productID).
		First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *gormCouponRepo) FindByCodeGlobal(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		Where("code = ? AND product_id IS NULL", code).
		First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *gormCouponRepo) DecrementRemainingUses(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code = ? AND remaining_uses > 0", code).
		UpdateColumn("remaining_uses", gorm.Expr("remaining_uses - ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
