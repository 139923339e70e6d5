package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store is the unit-of-work over all engine repositories. Transaction runs fn
// against a transactional Store: every write inside fn commits together or
// not at all. Row-locked reads (see OrderRepository.FindByMerchantUIDForUpdate)
// are only meaningful inside a Transaction.
type Store interface {
	Orders() OrderRepository
	Coupons() CouponRepository
	Contracts() ContractRepository
	Products() ProductRepository
	CancelLogs() CancelLogRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given GORM handle.
func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Orders() OrderRepository         { return &gormOrderRepo{db: s.db} }
func (s *GormStore) Coupons() CouponRepository       { return &gormCouponRepo{db: s.db} }
func (s *GormStore) Contracts() ContractRepository   { return &gormContractRepo{db: s.db} }
func (s *GormStore) Products() ProductRepository     { return &gormProductRepo{db: s.db} }
func (s *GormStore) CancelLogs() CancelLogRepository { return &gormCancelLogRepo{db: s.db} }

// Transaction wraps fn in a database transaction. The callback receives a
// Store bound to the transaction handle.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(txdb *gorm.DB) error {
		return fn(&GormStore{db: txdb})
	})
}
