package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/withjoono/grinalda-sub000/models"
)

const (
	// entitlements:{member_id} -> JSON array of models.Entitlement
	keyEntitlements = "entitlements:"

	ttlEntitlements = 5 * time.Minute
)

// EntitlementCache caches the derived active-entitlements view per member.
// The orchestrator invalidates it after every order-state mutation, so a
// cache hit is never staler than the last completed/failed/cancelled order.
type EntitlementCache interface {
	Get(ctx context.Context, memberID uuid.UUID) ([]models.Entitlement, bool)
	Set(ctx context.Context, memberID uuid.UUID, entitlements []models.Entitlement)
	Invalidate(ctx context.Context, memberID uuid.UUID)
}

// RedisEntitlementCache implements EntitlementCache over Redis. Cache
// failures are logged and degrade to misses; they never fail the request.
type RedisEntitlementCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisEntitlementCache(addr string, logger *zap.Logger) *RedisEntitlementCache {
	return &RedisEntitlementCache{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

func (c *RedisEntitlementCache) Get(ctx context.Context, memberID uuid.UUID) ([]models.Entitlement, bool) {
	raw, err := c.rdb.Get(ctx, keyEntitlements+memberID.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Entitlement cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var entitlements []models.Entitlement
	if err := json.Unmarshal(raw, &entitlements); err != nil {
		c.logger.Warn("Entitlement cache payload corrupt", zap.Error(err))
		return nil, false
	}
	return entitlements, true
}

func (c *RedisEntitlementCache) Set(ctx context.Context, memberID uuid.UUID, entitlements []models.Entitlement) {
	raw, err := json.Marshal(entitlements)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyEntitlements+memberID.String(), raw, ttlEntitlements).Err(); err != nil {
		c.logger.Warn("Entitlement cache write failed", zap.Error(err))
	}
}

func (c *RedisEntitlementCache) Invalidate(ctx context.Context, memberID uuid.UUID) {
	if err := c.rdb.Del(ctx, keyEntitlements+memberID.String()).Err(); err != nil {
		c.logger.Warn("Entitlement cache invalidation failed", zap.Error(err))
	}
}
