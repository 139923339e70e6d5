package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product type codes understood by the contract activation policy table.
const (
	ProductTypeFixedTerm = "FIXEDTERM"
	ProductTypeTicket    = "TICKET"
	ProductTypePackage   = "PACKAGE"
)

// Product is the catalog read model the engine consumes. Catalog writes are
// owned by the admin service; this engine only reads price, type code and the
// optional configured term end.
type Product struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(128);not null" json:"name"`
	Price     int            `gorm:"not null" json:"price"`
	TypeCode  string         `gorm:"type:varchar(32);not null" json:"type_code"`
	TermEnd   *time.Time     `json:"term_end,omitempty"` // configured subscription end, if any
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
