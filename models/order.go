package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a purchase attempt. Transitions are
// one-way: PENDING may move to COMPLETE, FAILED or CANCEL, all of which are
// terminal.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusComplete OrderStatus = "COMPLETE"
	OrderStatusFailed   OrderStatus = "FAILED"
	OrderStatusCancel   OrderStatus = "CANCEL"
)

// Terminal reports whether the status permits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusComplete || s == OrderStatusFailed || s == OrderStatusCancel
}

// Order represents one purchase attempt. MerchantUID is the external-facing
// idempotency key for the whole payment flow. Orders are never deleted.
type Order struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MerchantUID  string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"merchant_uid"`
	MemberID     uuid.UUID   `gorm:"type:uuid;index;not null" json:"member_id"`
	ProductID    uuid.UUID   `gorm:"type:uuid;index;not null" json:"product_id"`
	Status       OrderStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	PaidAmount   int         `gorm:"not null" json:"paid_amount"`
	CancelAmount int         `gorm:"not null;default:0" json:"cancel_amount"`
	GatewayTxnID *string     `gorm:"type:varchar(128);uniqueIndex" json:"gateway_txn_id,omitempty"`
	CardName     *string     `gorm:"type:varchar(64)" json:"card_name,omitempty"`
	PGProvider   *string     `gorm:"type:varchar(64)" json:"pg_provider,omitempty"`
	ReceiptURL   *string     `gorm:"type:varchar(1024)" json:"receipt_url,omitempty"`
	PaidAt       *time.Time  `json:"paid_at,omitempty"`
	FailedAt     *time.Time  `json:"failed_at,omitempty"`
	CancelledAt  *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// PrepareOrderRequest is the payload for order pre-registration.
type PrepareOrderRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	CouponCode string    `json:"coupon_code"`
}

// PrepareOrderResponse returns the fingerprint and final amount the client
// must use when completing payment at the gateway.
type PrepareOrderResponse struct {
	MerchantUID string `json:"merchant_uid"`
	Amount      int    `json:"amount"`
}

// VerifyPaymentRequest is the payload for synchronous payment verification.
type VerifyPaymentRequest struct {
	GatewayTxnID string `json:"gateway_txn_id" binding:"required"`
	MerchantUID  string `json:"merchant_uid" binding:"required"`
	CouponCode   string `json:"coupon_code"`
}

// InquirePaymentRequest is the payload for the polling fallback.
type InquirePaymentRequest struct {
	MerchantUID string `json:"merchant_uid" binding:"required"`
}

// WebhookRequest is the payload delivered by the payment gateway. The status
// field is never trusted blindly; terminal statuses are re-verified against
// gateway truth before any local mutation.
type WebhookRequest struct {
	GatewayTxnID string `json:"gateway_txn_id" binding:"required"`
	MerchantUID  string `json:"merchant_uid" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

// InquiryResult reports where the polling fallback drove the order.
type InquiryResult struct {
	Status       OrderStatus   `json:"status"`
	Entitlements []Entitlement `json:"entitlements,omitempty"`
}

// FreeContractRequest is the payload for the 100%-discount coupon path.
type FreeContractRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	CouponCode string    `json:"coupon_code" binding:"required"`
}
