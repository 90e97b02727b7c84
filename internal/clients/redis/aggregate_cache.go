package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

const aggregateTTL = 5 * time.Minute

// AggregateCache is a read-through cache for the UserProgress aggregate.
// It is optional: a nil *AggregateCache is a no-op, so the service layer
// can run without redis configured.
type AggregateCache struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewAggregateCache(ctx context.Context, addr string, baseLog *logger.Logger) (*AggregateCache, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &AggregateCache{rdb: rdb, log: baseLog.With("client", "AggregateCache")}, nil
}

func key(userID uuid.UUID) string {
	return "habitledger:user_progress:" + userID.String()
}

// GetProgress returns the cached aggregate, or (nil, false) on a miss.
// Cache errors are logged and treated as misses.
func (c *AggregateCache) GetProgress(ctx context.Context, userID uuid.UUID) (*types.UserProgress, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key(userID)).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("Aggregate cache read failed", "error", err.Error())
		return nil, false
	}
	var out types.UserProgress
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("Aggregate cache entry corrupt, dropping", "error", err.Error())
		_ = c.rdb.Del(ctx, key(userID)).Err()
		return nil, false
	}
	return &out, true
}

func (c *AggregateCache) SetProgress(ctx context.Context, row *types.UserProgress) {
	if c == nil || row == nil {
		return
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(row.UserID), raw, aggregateTTL).Err(); err != nil {
		c.log.Warn("Aggregate cache write failed", "error", err.Error())
	}
}

func (c *AggregateCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(userID)).Err(); err != nil {
		c.log.Warn("Aggregate cache invalidation failed", "error", err.Error())
	}
}

func (c *AggregateCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
