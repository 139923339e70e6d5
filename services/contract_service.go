package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/withjoono/grinalda-sub000/apperrors"
	"github.com/withjoono/grinalda-sub000/cache"
	"github.com/withjoono/grinalda-sub000/models"
	"github.com/withjoono/grinalda-sub000/repository"
)

// ContractService creates, revokes and queries entitlement contracts.
// Activation is driven by a per-product-type policy table.
type ContractService interface {
	Activate(ctx context.Context, tx repository.Store, order *models.Order, product *models.Product) (*models.Contract, error)
	Revoke(ctx context.Context, tx repository.Store, orderID, memberID uuid.UUID) error
	ActiveEntitlements(ctx context.Context, memberID uuid.UUID) ([]models.Entitlement, *apperrors.Error)
	InvalidateEntitlements(ctx context.Context, memberID uuid.UUID)
}

// contractEndPolicy computes the contract end for a given start time.
type contractEndPolicy func(start time.Time, product *models.Product) time.Time

// fixedTermEnd uses the product's configured term end when it lies in the
// future, otherwise one month from start.
func fixedTermEnd(start time.Time, product *models.Product) time.Time {
	if product.TermEnd != nil && product.TermEnd.After(start) {
		return *product.TermEnd
	}
	return start.AddDate(0, 1, 0)
}

// ticketEnd grants effectively perpetual access; a ticket is a consumable-use
// entitlement, not a time window.
func ticketEnd(start time.Time, _ *models.Product) time.Time {
	return start.AddDate(100, 0, 0)
}

var contractEndPolicies = map[string]contractEndPolicy{
	models.ProductTypeFixedTerm: fixedTermEnd,
	models.ProductTypeTicket:    ticketEnd,
	models.ProductTypePackage:   fixedTermEnd,
}

type contractServiceImpl struct {
	store  repository.Store
	cache  cache.EntitlementCache
	logger *zap.Logger
}

// NewContractService creates a ContractService. entitlementCache may be nil;
// entitlement queries then always hit the database.
func NewContractService(store repository.Store, entitlementCache cache.EntitlementCache, logger *zap.Logger) ContractService {
	return &contractServiceImpl{store: store, cache: entitlementCache, logger: logger}
}

// Activate creates exactly one active contract for the order. The unique
// index on contracts.order_id backs the at-most-one guarantee.
func (s *contractServiceImpl) Activate(ctx context.Context, tx repository.Store, order *models.Order, product *models.Product) (*models.Contract, error) {
	policy, ok := contractEndPolicies[product.TypeCode]
	if !ok {
		s.logger.Warn("Unknown product type code, falling back to fixed-term policy",
			zap.String("type_code", product.TypeCode),
			zap.String("merchant_uid", order.MerchantUID),
		)
		policy = fixedTermEnd
	}

	start := time.Now()
	contract := &models.Contract{
		MemberID:        order.MemberID,
		OrderID:         order.ID,
		ProductID:       product.ID,
		ProductTypeCode: product.TypeCode,
		ContractStart:   start,
		ContractEnd:     policy(start, product),
		Active:          true,
	}
	if err := tx.Contracts().Create(ctx, contract); err != nil {
		return nil, apperrors.Internal("contract activation failed", err)
	}

	s.logger.Info("Contract activated",
		zap.String("member_id", order.MemberID.String()),
		zap.String("merchant_uid", order.MerchantUID),
		zap.String("type_code", product.TypeCode),
		zap.Time("contract_end", contract.ContractEnd),
	)
	return contract, nil
}

// Revoke flips the contract for (order, member) to inactive. A missing
// contract is a no-op: the order may have failed before one existed.
func (s *contractServiceImpl) Revoke(ctx context.Context, tx repository.Store, orderID, memberID uuid.UUID) error {
	contract, err := tx.Contracts().FindByOrderAndMember(ctx, orderID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Internal("contract lookup failed", err)
	}
	if err := tx.Contracts().Deactivate(ctx, contract.ID); err != nil {
		return apperrors.Internal("contract revocation failed", err)
	}

	s.logger.Info("Contract revoked",
		zap.String("member_id", memberID.String()),
		zap.String("contract_id", contract.ID.String()),
	)
	return nil
}

// ActiveEntitlements returns the member's currently active contracts as the
// derived view entitlement consumers gate access on.
func (s *contractServiceImpl) ActiveEntitlements(ctx context.Context, memberID uuid.UUID) ([]models.Entitlement, *apperrors.Error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, memberID); ok {
			return cached, nil
		}
	}

	contracts, err := s.store.Contracts().FindActiveByMember(ctx, memberID, time.Now())
	if err != nil {
		s.logger.Error("Entitlement query failed", zap.String("member_id", memberID.String()), zap.Error(err))
		return nil, apperrors.Internal("entitlement query failed", err)
	}

	entitlements := make([]models.Entitlement, 0, len(contracts))
	for _, c := range contracts {
		entitlements = append(entitlements, models.Entitlement{
			ProductTypeCode: c.ProductTypeCode,
			ProductID:       c.ProductID,
			ContractStart:   c.ContractStart,
			ContractEnd:     c.ContractEnd,
		})
	}

	if s.cache != nil {
		s.cache.Set(ctx, memberID, entitlements)
	}
	return entitlements, nil
}

// InvalidateEntitlements drops the cached view after an order-state mutation.
func (s *contractServiceImpl) InvalidateEntitlements(ctx context.Context, memberID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, memberID)
	}
}
