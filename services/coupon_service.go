package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/withjoono/grinalda-sub000/apperrors"
	"github.com/withjoono/grinalda-sub000/awsx"
	"github.com/withjoono/grinalda-sub000/models"
	"github.com/withjoono/grinalda-sub000/repository"
)

// CouponService validates coupons against products and consumes them as part
// of order completion. Validation never mutates state; consumption happens
// exactly once per completed order, inside the completion transaction.
type CouponService interface {
	Validate(ctx context.Context, code string, product *models.Product) (*models.CouponDiscount, *apperrors.Error)
	// Preview resolves the product first, then validates; used by the
	// discount-preview endpoint.
	Preview(ctx context.Context, code string, productID uuid.UUID) (*models.CouponDiscount, *apperrors.Error)
	Consume(ctx context.Context, tx repository.Store, code, merchantUID string) error
}

type couponServiceImpl struct {
	store       repository.Store
	snsClient   awsx.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewCouponService creates a CouponService. snsClient may be nil; the
// coupon_applied event is then skipped.
func NewCouponService(
	store repository.Store,
	snsClient awsx.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) CouponService {
	return &couponServiceImpl{
		store:       store,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// Validate resolves a coupon for the product — product-scoped first, then
// global scope — and computes the discount against the product price.
func (s *couponServiceImpl) Validate(ctx context.Context, code string, product *models.Product) (*models.CouponDiscount, *apperrors.Error) {
	coupon, err := s.store.Coupons().FindByCodeAndProduct(ctx, code, product.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		coupon, err = s.store.Coupons().FindByCodeGlobal(ctx, code)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("coupon not found")
		}
		s.logger.Error("Coupon lookup failed", zap.String("code", code), zap.Error(err))
		return nil, apperrors.Internal("coupon lookup failed", err)
	}

	if coupon.RemainingUses <= 0 {
		return nil, apperrors.Conflict("coupon is gone")
	}

	// Integer division floors, matching floor(price * percent / 100).
	discountPrice := product.Price * coupon.DiscountValue / 100

	return &models.CouponDiscount{
		Code:          coupon.Code,
		DiscountValue: coupon.DiscountValue,
		DiscountPrice: discountPrice,
		Description:   coupon.Description,
	}, nil
}

// Preview validates a coupon against a product resolved by id.
func (s *couponServiceImpl) Preview(ctx context.Context, code string, productID uuid.UUID) (*models.CouponDiscount, *apperrors.Error) {
	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, apperrors.Internal("product lookup failed", err)
	}
	return s.Validate(ctx, code, product)
}

// Consume re-resolves the coupon by global scope only and decrements its
// remaining uses inside the caller's transaction. The orchestrator invokes it
// solely on the COMPLETE-transition path, which is idempotency-guarded.
func (s *couponServiceImpl) Consume(ctx context.Context, tx repository.Store, code, merchantUID string) error {
	coupon, err := tx.Coupons().FindByCodeGlobal(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("coupon not found")
		}
		return apperrors.Internal("coupon lookup failed", err)
	}

	if err := tx.Coupons().DecrementRemainingUses(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Conflict("coupon is gone")
		}
		return apperrors.Internal("coupon consumption failed", err)
	}

	s.publishCouponAppliedEvent(ctx, coupon, merchantUID)
	return nil
}

// publishCouponAppliedEvent publishes a coupon_applied event to SNS. Failures
// are logged only; the consuming transaction is not affected.
func (s *couponServiceImpl) publishCouponAppliedEvent(ctx context.Context, coupon *models.Coupon, merchantUID string) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		return
	}

	event := models.CouponAppliedEvent{
		EventType:     "coupon_applied",
		CouponCode:    coupon.Code,
		MerchantUID:   merchantUID,
		DiscountValue: coupon.DiscountValue,
		Timestamp:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.snsClient.Publish(ctx, s.snsTopicArn, payload); err != nil {
		s.logger.Error("Failed to publish coupon_applied event",
			zap.String("coupon_code", coupon.Code),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Published coupon_applied event",
		zap.String("coupon_code", coupon.Code),
		zap.String("merchant_uid", merchantUID),
	)
}
