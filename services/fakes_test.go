package services_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/withjoono/grinalda-sub000/gateway"
	"github.com/withjoono/grinalda-sub000/models"
	"github.com/withjoono/grinalda-sub000/repository"
)

// --- In-memory Store ---

type memStore struct {
	orders     map[string]*models.Order // keyed by merchant UID
	coupons    map[string]*models.Coupon
	contracts  []*models.Contract
	products   map[uuid.UUID]*models.Product
	cancelLogs []*models.CancelLog
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[string]*models.Order),
		coupons:  make(map[string]*models.Coupon),
		products: make(map[uuid.UUID]*models.Product),
	}
}

func (m *memStore) Orders() repository.OrderRepository         { return &memOrderRepo{m} }
func (m *memStore) Coupons() repository.CouponRepository       { return &memCouponRepo{m} }
func (m *memStore) Contracts() repository.ContractRepository   { return &memContractRepo{m} }
func (m *memStore) Products() repository.ProductRepository     { return &memProductRepo{m} }
func (m *memStore) CancelLogs() repository.CancelLogRepository { return &memCancelLogRepo{m} }

func (m *memStore) Transaction(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(m)
}

type memOrderRepo struct{ s *memStore }

func (r *memOrderRepo) Create(_ context.Context, order *models.Order) error {
	if _, ok := r.s.orders[order.MerchantUID]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.s.orders[order.MerchantUID] = order
	return nil
}

func (r *memOrderRepo) FindByMerchantUID(_ context.Context, merchantUID string) (*models.Order, error) {
	order, ok := r.s.orders[merchantUID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *memOrderRepo) FindByMerchantUIDForUpdate(ctx context.Context, merchantUID string) (*models.Order, error) {
	return r.FindByMerchantUID(ctx, merchantUID)
}

func (r *memOrderRepo) Update(_ context.Context, order *models.Order) error {
	r.s.orders[order.MerchantUID] = order
	return nil
}

type memCouponRepo struct{ s *memStore }

func (r *memCouponRepo) FindByCodeAndProduct(_ context.Context, code string, productID uuid.UUID) (*models.Coupon, error) {
	c, ok := r.s.coupons[code]
	if !ok || c.ProductID == nil || *c.ProductID != productID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memCouponRepo) FindByCodeGlobal(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := r.s.coupons[code]
	if !ok || c.ProductID != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memCouponRepo) DecrementRemainingUses(_ context.Context, code string) error {
	c, ok := r.s.coupons[code]
	if !ok || c.RemainingUses <= 0 {
		return gorm.ErrRecordNotFound
	}
	c.RemainingUses--
	return nil
}

type memContractRepo struct{ s *memStore }

func (r *memContractRepo) Create(_ context.Context, contract *models.Contract) error {
	for _, c := range r.s.contracts {
		if c.OrderID == contract.OrderID {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	if contract.ID == uuid.Nil {
		contract.ID = uuid.New()
	}
	r.s.contracts = append(r.s.contracts, contract)
	return nil
}

func (r *memContractRepo) FindByOrderAndMember(_ context.Context, orderID, memberID uuid.UUID) (*models.Contract, error) {
	for _, c := range r.s.contracts {
		if c.OrderID == orderID && c.MemberID == memberID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memContractRepo) Deactivate(_ context.Context, contractID uuid.UUID) error {
	for _, c := range r.s.contracts {
		if c.ID == contractID {
			c.Active = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memContractRepo) FindActiveByMember(_ context.Context, memberID uuid.UUID, now time.Time) ([]models.Contract, error) {
	var result []models.Contract
	for _, c := range r.s.contracts {
		if c.MemberID == memberID && c.Active && c.ContractEnd.After(now) {
			result = append(result, *c)
		}
	}
	return result, nil
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

type memCancelLogRepo struct{ s *memStore }

func (r *memCancelLogRepo) Create(_ context.Context, entry *models.CancelLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.s.cancelLogs = append(r.s.cancelLogs, entry)
	return nil
}

// --- Fake payment gateway ---

type fakeGateway struct {
	info       *gateway.PaymentInfo
	infoErr    error
	findInfo   *gateway.PaymentInfo
	findErr    error
	cancelInfo *gateway.PaymentInfo
	cancelErr  error

	getCalls    int
	findCalls   int
	cancelCalls int
}

func (g *fakeGateway) GetPaymentInfo(_ context.Context, _ string) (*gateway.PaymentInfo, error) {
	g.getCalls++
	return g.info, g.infoErr
}

func (g *fakeGateway) FindPayment(_ context.Context, _ string) (*gateway.PaymentInfo, error) {
	g.findCalls++
	return g.findInfo, g.findErr
}

func (g *fakeGateway) CancelPayment(_ context.Context, _, merchantUID, _ string) (*gateway.PaymentInfo, error) {
	g.cancelCalls++
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	if g.cancelInfo != nil {
		return g.cancelInfo, nil
	}
	return &gateway.PaymentInfo{MerchantUID: merchantUID, Status: gateway.StatusCancelled}, nil
}

// --- Fake SNS publisher ---

type fakeSNSPublisher struct {
	published []string
}

func (m *fakeSNSPublisher) Publish(_ context.Context, topicArn string, _ []byte) error {
	m.published = append(m.published, topicArn)
	return nil
}

// --- Fake event producer ---

type fakeEventProducer struct {
	events []models.PaymentEvent
}

func (p *fakeEventProducer) SendPaymentEvent(_ context.Context, event models.PaymentEvent) error {
	p.events = append(p.events, event)
	return nil
}

// --- Fake entitlement cache ---

type fakeEntitlementCache struct {
	entries     map[uuid.UUID][]models.Entitlement
	invalidated int
}

func newFakeEntitlementCache() *fakeEntitlementCache {
	return &fakeEntitlementCache{entries: make(map[uuid.UUID][]models.Entitlement)}
}

func (c *fakeEntitlementCache) Get(_ context.Context, memberID uuid.UUID) ([]models.Entitlement, bool) {
	e, ok := c.entries[memberID]
	return e, ok
}

func (c *fakeEntitlementCache) Set(_ context.Context, memberID uuid.UUID, entitlements []models.Entitlement) {
	c.entries[memberID] = entitlements
}

func (c *fakeEntitlementCache) Invalidate(_ context.Context, memberID uuid.UUID) {
	delete(c.entries, memberID)
	c.invalidated++
}
