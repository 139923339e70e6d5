package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/withjoono/grinalda-sub000/apperrors"
	"github.com/withjoono/grinalda-sub000/gateway"
	"github.com/withjoono/grinalda-sub000/models"
	"github.com/withjoono/grinalda-sub000/repository"
)

// msgZeroAmount is surfaced when a discount drives the payable amount to
// zero; the client must use the free-contract path instead.
const msgZeroAmount = "결제 금액이 0원 입니다"

// PaymentGateway is the consumer-side view of the external payment provider.
type PaymentGateway interface {
	GetPaymentInfo(ctx context.Context, transactionID string) (*gateway.PaymentInfo, error)
	FindPayment(ctx context.Context, merchantUID string) (*gateway.PaymentInfo, error)
	CancelPayment(ctx context.Context, transactionID, merchantUID, reason string) (*gateway.PaymentInfo, error)
}

// PaymentEventPublisher publishes payment lifecycle events.
type PaymentEventPublisher interface {
	SendPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

// PaymentService orchestrates the order lifecycle: pre-registration,
// synchronous verification, webhook dispatch, failure and cancellation
// handling, polling reconciliation and the free-contract path.
type PaymentService interface {
	PreRegister(ctx context.Context, memberID uuid.UUID, req *models.PrepareOrderRequest) (*models.PrepareOrderResponse, *apperrors.Error)
	VerifyAndProcess(ctx context.Context, gatewayTxnID, merchantUID, couponCode string) ([]models.Entitlement, *apperrors.Error)
	WebhookDispatch(ctx context.Context, gatewayTxnID, merchantUID, status string) *apperrors.Error
	HandleFailedPayment(ctx context.Context, gatewayTxnID, merchantUID string) *apperrors.Error
	HandleCancelledPayment(ctx context.Context, gatewayTxnID, merchantUID string) *apperrors.Error
	InquireAndProcess(ctx context.Context, merchantUID string) (*models.InquiryResult, *apperrors.Error)
	ContractFreeService(ctx context.Context, couponCode string, productID, memberID uuid.UUID) ([]models.Entitlement, *apperrors.Error)
}

type paymentServiceImpl struct {
	store     repository.Store
	gateway   PaymentGateway
	coupons   CouponService
	contracts ContractService
	producer  PaymentEventPublisher
	logger    *zap.Logger
}

// NewPaymentService creates the orchestrator. producer may be nil; lifecycle
// events are then skipped.
func NewPaymentService(
	store repository.Store,
	gw PaymentGateway,
	coupons CouponService,
	contracts ContractService,
	producer PaymentEventPublisher,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		store:     store,
		gateway:   gw,
		coupons:   coupons,
		contracts: contracts,
		producer:  producer,
		logger:    logger,
	}
}

// newMerchantUID generates an order fingerprint. Uniqueness is enforced by
// the unique constraint on orders.merchant_uid, not re-checked here.
func newMerchantUID() string {
	return "order-" + uuid.NewString()
}

// PreRegister creates a PENDING order carrying the final payable amount so
// that verification can later compare it against gateway truth.
func (s *paymentServiceImpl) PreRegister(ctx context.Context, memberID uuid.UUID, req *models.PrepareOrderRequest) (*models.PrepareOrderResponse, *apperrors.Error) {
	product, err := s.store.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, apperrors.Internal("product lookup failed", err)
	}

	amount := product.Price
	if req.CouponCode != "" {
		discount, appErr := s.coupons.Validate(ctx, req.CouponCode, product)
		if appErr != nil {
			return nil, appErr
		}
		amount -= discount.DiscountPrice
	}
	if amount <= 0 {
		return nil, apperrors.Validation(msgZeroAmount)
	}

	order := &models.Order{
		MerchantUID: newMerchantUID(),
		MemberID:    memberID,
		ProductID:   product.ID,
		Status:      models.OrderStatusPending,
		PaidAmount:  amount,
	}
	if err := s.store.Orders().Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, apperrors.Conflict("order fingerprint collision")
		}
		return nil, apperrors.Internal("order creation failed", err)
	}

	s.logger.Info("Order pre-registered",
		zap.String("merchant_uid", order.MerchantUID),
		zap.String("member_id", memberID.String()),
		zap.Int("amount", amount),
	)
	return &models.PrepareOrderResponse{MerchantUID: order.MerchantUID, Amount: amount}, nil
}

// VerifyAndProcess validates gateway truth against the local order and
// completes it in one transaction: mark COMPLETE, consume the coupon,
// activate the contract. It is idempotent — a COMPLETE order short-circuits
// to the member's entitlements with no gateway call and no re-activation.
// On gateway, consistency or internal failure the transaction rolls back and
// a best-effort compensating cancellation is issued outside it.
func (s *paymentServiceImpl) VerifyAndProcess(ctx context.Context, gatewayTxnID, merchantUID, couponCode string) ([]models.Entitlement, *apperrors.Error) {
	order, appErr := s.findOrder(ctx, merchantUID)
	if appErr != nil {
		return nil, appErr
	}
	if order.Status == models.OrderStatusComplete {
		return s.contracts.ActiveEntitlements(ctx, order.MemberID)
	}

	raced := false
	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Orders().FindByMerchantUIDForUpdate(ctx, merchantUID)
		if err != nil {
			return apperrors.Internal("order lock failed", err)
		}
		// Re-check under the row lock: a concurrent webhook may have won.
		if locked.Status == models.OrderStatusComplete {
			raced = true
			return nil
		}
		if locked.Status.Terminal() {
			return apperrors.Conflict("order already " + strings.ToLower(string(locked.Status)))
		}

		info, err := s.gateway.GetPaymentInfo(ctx, gatewayTxnID)
		if err != nil {
			return err
		}
		if info.Status != gateway.StatusPaid {
			return apperrors.Validation("payment is not completed at the gateway: " + info.Status)
		}
		if info.Amount != locked.PaidAmount {
			return apperrors.Consistency(fmt.Sprintf(
				"gateway amount %d does not match order amount %d", info.Amount, locked.PaidAmount))
		}

		now := time.Now()
		locked.Status = models.OrderStatusComplete
		locked.GatewayTxnID = &gatewayTxnID
		locked.PaidAt = &now
		if info.CardName != "" {
			locked.CardName = &info.CardName
		}
		if info.PGProvider != "" {
			locked.PGProvider = &info.PGProvider
		}
		if info.ReceiptURL != "" {
			locked.ReceiptURL = &info.ReceiptURL
		}
		if err := tx.Orders().Update(ctx, locked); err != nil {
			return apperrors.Internal("order completion failed", err)
		}

		if couponCode != "" {
			if err := s.coupons.Consume(ctx, tx, couponCode, merchantUID); err != nil {
				return err
			}
		}

		product, err := tx.Products().FindByID(ctx, locked.ProductID)
		if err != nil {
			return apperrors.Internal("product lookup failed", err)
		}
		if _, err := s.contracts.Activate(ctx, tx, locked, product); err != nil {
			return err
		}

		*order = *locked
		return nil
	})

	if txErr != nil {
		appErr := apperrors.From(txErr)
		s.logger.Warn("Payment verification failed",
			zap.String("merchant_uid", merchantUID),
			zap.String("gateway_txn_id", gatewayTxnID),
			zap.String("kind", string(appErr.Kind)),
			zap.Error(appErr),
		)
		switch appErr.Kind {
		case apperrors.KindGateway, apperrors.KindConsistency, apperrors.KindInternal:
			s.compensate(ctx, gatewayTxnID, merchantUID, appErr.Message)
		}
		return nil, appErr
	}

	if !raced {
		s.contracts.InvalidateEntitlements(ctx, order.MemberID)
		s.publishEvent(ctx, "payment_completed", order)
	}
	return s.contracts.ActiveEntitlements(ctx, order.MemberID)
}

// WebhookDispatch routes a gateway webhook by claimed status. Terminal
// statuses are re-verified against gateway truth by the handlers; an already
// COMPLETE order is a no-op success since providers may redeliver.
func (s *paymentServiceImpl) WebhookDispatch(ctx context.Context, gatewayTxnID, merchantUID, status string) *apperrors.Error {
	switch status {
	case gateway.StatusPaid:
		_, appErr := s.VerifyAndProcess(ctx, gatewayTxnID, merchantUID, "")
		return appErr
	case gateway.StatusFailed:
		return s.HandleFailedPayment(ctx, gatewayTxnID, merchantUID)
	case gateway.StatusCancelled:
		return s.HandleCancelledPayment(ctx, gatewayTxnID, merchantUID)
	default:
		return apperrors.Validation("unknown webhook status: " + status)
	}
}

// HandleFailedPayment transitions a pending order to FAILED after confirming
// the gateway actually reports the failure.
func (s *paymentServiceImpl) HandleFailedPayment(ctx context.Context, gatewayTxnID, merchantUID string) *apperrors.Error {
	info, err := s.gateway.GetPaymentInfo(ctx, gatewayTxnID)
	if err != nil {
		return apperrors.From(err)
	}
	if info.Status != gateway.StatusFailed {
		return apperrors.Consistency("gateway reports status " + info.Status + ", not failed")
	}

	var memberID uuid.UUID
	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Orders().FindByMerchantUIDForUpdate(ctx, merchantUID)
		if err != nil {
			return apperrors.Internal("order lock failed", err)
		}
		if locked.Status.Terminal() {
			return nil // idempotent redelivery
		}

		now := time.Now()
		locked.Status = models.OrderStatusFailed
		locked.GatewayTxnID = &gatewayTxnID
		locked.FailedAt = &now
		if err := tx.Orders().Update(ctx, locked); err != nil {
			return apperrors.Internal("order failure transition failed", err)
		}
		memberID = locked.MemberID
		return s.contracts.Revoke(ctx, tx, locked.ID, locked.MemberID)
	})
	if txErr != nil {
		return apperrors.From(txErr)
	}

	if memberID != uuid.Nil {
		s.contracts.InvalidateEntitlements(ctx, memberID)
		if order, appErr := s.findOrder(ctx, merchantUID); appErr == nil {
			s.publishEvent(ctx, "payment_failed", order)
		}
	}
	return nil
}

// HandleCancelledPayment transitions an order to CANCEL after confirming the
// cancellation with the gateway, revoking any contract the order activated.
// A gateway-verified cancellation may override COMPLETE (provider-side
// refund); CANCEL itself is final.
func (s *paymentServiceImpl) HandleCancelledPayment(ctx context.Context, gatewayTxnID, merchantUID string) *apperrors.Error {
	info, err := s.gateway.GetPaymentInfo(ctx, gatewayTxnID)
	if err != nil {
		return apperrors.From(err)
	}
	if info.Status != gateway.StatusCancelled {
		return apperrors.Consistency("gateway reports status " + info.Status + ", not cancelled")
	}

	var memberID uuid.UUID
	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Orders().FindByMerchantUIDForUpdate(ctx, merchantUID)
		if err != nil {
			return apperrors.Internal("order lock failed", err)
		}
		if locked.Status == models.OrderStatusCancel || locked.Status == models.OrderStatusFailed {
			return nil // idempotent redelivery
		}

		now := time.Now()
		locked.Status = models.OrderStatusCancel
		locked.GatewayTxnID = &gatewayTxnID
		locked.CancelAmount = info.CancelAmount
		locked.CancelledAt = &now
		if err := tx.Orders().Update(ctx, locked); err != nil {
			return apperrors.Internal("order cancel transition failed", err)
		}
		memberID = locked.MemberID
		return s.contracts.Revoke(ctx, tx, locked.ID, locked.MemberID)
	})
	if txErr != nil {
		return apperrors.From(txErr)
	}

	if memberID != uuid.Nil {
		s.contracts.InvalidateEntitlements(ctx, memberID)
		if order, appErr := s.findOrder(ctx, merchantUID); appErr == nil {
			s.publishEvent(ctx, "payment_cancelled", order)
		}
	}
	return nil
}

// InquireAndProcess is the polling fallback for a still-PENDING order: the
// gateway's current report drives the order to completion, leaves it pending,
// or drives it to failure/cancellation.
func (s *paymentServiceImpl) InquireAndProcess(ctx context.Context, merchantUID string) (*models.InquiryResult, *apperrors.Error) {
	order, appErr := s.findOrder(ctx, merchantUID)
	if appErr != nil {
		return nil, appErr
	}
	if order.Status == models.OrderStatusComplete {
		entitlements, appErr := s.contracts.ActiveEntitlements(ctx, order.MemberID)
		if appErr != nil {
			return nil, appErr
		}
		return &models.InquiryResult{Status: models.OrderStatusComplete, Entitlements: entitlements}, nil
	}

	info, err := s.gateway.FindPayment(ctx, merchantUID)
	if err != nil {
		return nil, apperrors.From(err)
	}

	switch info.Status {
	case gateway.StatusPaid:
		entitlements, appErr := s.VerifyAndProcess(ctx, info.TransactionID, merchantUID, "")
		if appErr != nil {
			return nil, appErr
		}
		return &models.InquiryResult{Status: models.OrderStatusComplete, Entitlements: entitlements}, nil
	case gateway.StatusReady:
		return &models.InquiryResult{Status: models.OrderStatusPending}, nil
	case gateway.StatusFailed:
		if appErr := s.HandleFailedPayment(ctx, info.TransactionID, merchantUID); appErr != nil {
			return nil, appErr
		}
		return &models.InquiryResult{Status: models.OrderStatusFailed}, nil
	case gateway.StatusCancelled:
		if appErr := s.HandleCancelledPayment(ctx, info.TransactionID, merchantUID); appErr != nil {
			return nil, appErr
		}
		return &models.InquiryResult{Status: models.OrderStatusCancel}, nil
	default:
		return nil, apperrors.Consistency("gateway reports unrecognized status: " + info.Status)
	}
}

// ContractFreeService grants a contract for a 100%-discount coupon: a
// COMPLETE zero-amount order, coupon consumed, contract activated — with no
// gateway interaction at all.
func (s *paymentServiceImpl) ContractFreeService(ctx context.Context, couponCode string, productID, memberID uuid.UUID) ([]models.Entitlement, *apperrors.Error) {
	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, apperrors.Internal("product lookup failed", err)
	}

	discount, appErr := s.coupons.Validate(ctx, couponCode, product)
	if appErr != nil {
		return nil, appErr
	}
	if discount.DiscountValue != 100 {
		return nil, apperrors.Validation("free contract requires a 100% discount coupon")
	}

	var order *models.Order
	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		now := time.Now()
		order = &models.Order{
			MerchantUID: newMerchantUID(),
			MemberID:    memberID,
			ProductID:   product.ID,
			Status:      models.OrderStatusComplete,
			PaidAmount:  0,
			PaidAt:      &now,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return apperrors.Internal("order creation failed", err)
		}
		if err := s.coupons.Consume(ctx, tx, couponCode, order.MerchantUID); err != nil {
			return err
		}
		_, err := s.contracts.Activate(ctx, tx, order, product)
		return err
	})
	if txErr != nil {
		return nil, apperrors.From(txErr)
	}

	s.contracts.InvalidateEntitlements(ctx, memberID)
	s.publishEvent(ctx, "payment_completed", order)
	return s.contracts.ActiveEntitlements(ctx, memberID)
}

// compensate issues a best-effort cancellation at the gateway after the
// completion transaction has rolled back. On provider success the order moves
// to CANCEL in its own transaction; every attempt — successful or not — is
// appended to the cancel log. Compensation failures are logged, not retried.
func (s *paymentServiceImpl) compensate(ctx context.Context, gatewayTxnID, merchantUID, reason string) {
	entry := &models.CancelLog{
		MerchantUID:  merchantUID,
		GatewayTxnID: gatewayTxnID,
		Reason:       reason,
	}

	info, cancelErr := s.gateway.CancelPayment(ctx, gatewayTxnID, merchantUID, reason)
	if cancelErr != nil {
		entry.Succeeded = false
		entry.Detail = cancelErr.Error()
		if err := s.store.CancelLogs().Create(ctx, entry); err != nil {
			s.logger.Error("Failed to append cancel log", zap.String("merchant_uid", merchantUID), zap.Error(err))
		}
		s.logger.Error("Compensating cancellation failed",
			zap.String("merchant_uid", merchantUID),
			zap.String("gateway_txn_id", gatewayTxnID),
			zap.Error(cancelErr),
		)
		return
	}

	entry.Succeeded = true
	entry.Amount = info.CancelAmount
	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Orders().FindByMerchantUIDForUpdate(ctx, merchantUID)
		if err != nil {
			return err
		}
		if locked.Status == models.OrderStatusPending {
			now := time.Now()
			locked.Status = models.OrderStatusCancel
			locked.CancelAmount = info.CancelAmount
			locked.CancelledAt = &now
			if err := tx.Orders().Update(ctx, locked); err != nil {
				return err
			}
		}
		return tx.CancelLogs().Create(ctx, entry)
	})
	if txErr != nil {
		s.logger.Error("Failed to record compensating cancellation",
			zap.String("merchant_uid", merchantUID),
			zap.Error(txErr),
		)
		return
	}

	s.logger.Info("Compensating cancellation recorded",
		zap.String("merchant_uid", merchantUID),
		zap.Int("cancel_amount", info.CancelAmount),
	)
}

func (s *paymentServiceImpl) findOrder(ctx context.Context, merchantUID string) (*models.Order, *apperrors.Error) {
	order, err := s.store.Orders().FindByMerchantUID(ctx, merchantUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, apperrors.Internal("order lookup failed", err)
	}
	return order, nil
}

// publishEvent sends a payment lifecycle event to Kafka. Nil-safe; publish
// failures never affect the already-committed transaction.
func (s *paymentServiceImpl) publishEvent(ctx context.Context, eventType string, order *models.Order) {
	if s.producer == nil {
		return
	}
	event := models.PaymentEvent{
		Type:        eventType,
		MerchantUID: order.MerchantUID,
		MemberID:    order.MemberID.String(),
		ProductID:   order.ProductID.String(),
		Amount:      order.PaidAmount,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.producer.SendPaymentEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish payment event",
			zap.String("type", eventType),
			zap.String("merchant_uid", order.MerchantUID),
			zap.Error(err),
		)
	}
}
