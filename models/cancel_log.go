package models

import (
	"time"

	"github.com/google/uuid"
)

// CancelLog is an append-only audit record of every compensating cancellation
// attempt issued to the payment gateway, including failed ones.
type CancelLog struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MerchantUID  string    `gorm:"type:varchar(64);index;not null" json:"merchant_uid"`
	GatewayTxnID string    `gorm:"type:varchar(128);index" json:"gateway_txn_id"`
	Reason       string    `gorm:"type:varchar(255);not null" json:"reason"`
	Amount       int       `gorm:"not null;default:0" json:"amount"`
	Succeeded    bool      `gorm:"not null" json:"succeeded"`
	Detail       string    `gorm:"type:varchar(1024)" json:"detail"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
