package renewal

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketmate/marketmate/internal/pkg/cache"
)

const quotaWindow = 24 * time.Hour

// redisQuota counts renewals per owner in Redis. The window starts with the
// first renewal and expires on its own; crashed windows clean themselves up.
type redisQuota struct {
	client *redis.Client
}

// NewRedisQuota returns the production quota counter backed by the shared
// cache client.
func NewRedisQuota() QuotaCounter {
	return &redisQuota{client: cache.GetClient()}
}

func (q *redisQuota) Take(ownerID uint, limit int) (bool, error) {
	ctx := context.Background()
	key := fmt.Sprintf("renewal:quota:%d", ownerID)

	count, err := q.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// First renewal in this window, start the clock.
		if err := q.client.Expire(ctx, key, quotaWindow).Err(); err != nil {
			return false, err
		}
	}
	if count > int64(limit) {
		// Leave the counter as is; the window keeps rejecting until it
		// expires.
		return false, nil
	}
	return true, nil
}

func (q *redisQuota) Give(ownerID uint) error {
	ctx := context.Background()
	key := fmt.Sprintf("renewal:quota:%d", ownerID)

	// Only decrement a live window; a key that already expired has nothing
	// to give back.
	exists, err := q.client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	return q.client.Decr(ctx, key).Err()
}
