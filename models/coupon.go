package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coupon represents a percentage-discount coupon. ProductID scopes the coupon
// to a single product; a nil scope applies to any product. RemainingUses never
// goes below zero — the decrement is guarded at the storage layer.
type Coupon struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	DiscountValue int            `gorm:"not null" json:"discount_value"` // percentage, 1-100
	Description   string         `gorm:"type:varchar(255)" json:"description"`
	RemainingUses int            `gorm:"not null;default:0;check:remaining_uses >= 0" json:"remaining_uses"`
	ProductID     *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidateCouponRequest is the payload for a discount preview.
type ValidateCouponRequest struct {
	Code      string    `json:"code" binding:"required"`
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// CouponDiscount is the result of validating a coupon against a product.
type CouponDiscount struct {
	Code          string `json:"code"`
	DiscountValue int    `json:"discount_value"`
	DiscountPrice int    `json:"discount_price"`
	Description   string `json:"description"`
}

// CouponAppliedEvent is published to SNS when a coupon is consumed as part of
// a completed order.
type CouponAppliedEvent struct {
	EventType     string    `json:"event_type"`
	CouponCode    string    `json:"coupon_code"`
	MerchantUID   string    `json:"merchant_uid"`
	DiscountValue int       `json:"discount_value"`
	Timestamp     time.Time `json:"timestamp"`
}
