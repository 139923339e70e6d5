package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract is an entitlement record granting a member access to a service for
// a bounded window. The unique index on OrderID enforces at most one contract
// per order. Contracts are soft-revoked (Active=false), never deleted, so the
// audit history survives failed and cancelled payments.
type Contract struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MemberID        uuid.UUID `gorm:"type:uuid;index;not null" json:"member_id"`
	OrderID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`
	ProductID       uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	ProductTypeCode string    `gorm:"type:varchar(32);not null" json:"product_type_code"`
	ContractStart   time.Time `gorm:"not null" json:"contract_start"`
	ContractEnd     time.Time `gorm:"not null" json:"contract_end"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Entitlement is the derived view consumed by downstream services (SSO token
// issuance and friends) to gate access.
type Entitlement struct {
	ProductTypeCode string    `json:"product_type_code"`
	ProductID       uuid.UUID `json:"product_id"`
	ContractStart   time.Time `json:"contract_start"`
	ContractEnd     time.Time `json:"contract_end"`
}
