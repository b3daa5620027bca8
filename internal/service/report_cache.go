package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockbook/internal/dto"
	"stockbook/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// LedgerObserver is told about every committed change to item quantities,
// sales or snapshots of an organization.
type LedgerObserver interface {
	Invalidate(ctx context.Context, organizationID *uuid.UUID)
}

type noopLedger struct{}

func (noopLedger) Invalidate(context.Context, *uuid.UUID) {}

// ReportCache stores computed daily reports in Redis keyed by a per-organization
// ledger version. Invalidate bumps the version, so stale entries are never read
// again and expire on their own. A nil cache or client makes every call a no-op.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

const allOrganizations = "all"

func orgKey(org *uuid.UUID) string {
	if org == nil {
		return allOrganizations
	}
	return org.String()
}

func versionKey(org string) string { return "report:version:" + org }

func (c *ReportCache) enabled() bool { return c != nil && c.rdb != nil && c.ttl > 0 }

func (c *ReportCache) key(ctx context.Context, org *uuid.UUID, date model.Day) (string, error) {
	v, err := c.rdb.Get(ctx, versionKey(orgKey(org))).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("report:%s:%s:v%d", orgKey(org), date, v), nil
}

// Get returns the cached report and the versioned key it was looked up under.
// The key is empty when the cache is disabled or the version is unreadable.
// A freshly computed report must be stored with Set under that same key, never
// under a version read after the data was loaded.
func (c *ReportCache) Get(ctx context.Context, org *uuid.UUID, date model.Day) (*dto.StockReportResponse, string, bool) {
	if !c.enabled() {
		return nil, "", false
	}
	key, err := c.key(ctx, org, date)
	if err != nil {
		log.Warn().Err(err).Msg("report cache: version lookup failed")
		return nil, "", false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, key, false
	}
	var resp dto.StockReportResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, key, false
	}
	return &resp, key, true
}

// Set stores resp under a key previously returned by Get.
func (c *ReportCache) Set(ctx context.Context, key string, resp *dto.StockReportResponse) {
	if !c.enabled() || key == "" {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("report cache: write failed")
	}
}

// Invalidate bumps the organization's version and the cross-organization one,
// since the unscoped report covers every tenant.
func (c *ReportCache) Invalidate(ctx context.Context, organizationID *uuid.UUID) {
	if !c.enabled() {
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, versionKey(orgKey(organizationID)))
	if organizationID != nil {
		pipe.Incr(ctx, versionKey(allOrganizations))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("org", orgKey(organizationID)).Msg("report cache: invalidate failed")
	}
}
