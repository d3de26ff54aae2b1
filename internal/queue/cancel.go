package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

const cancelKeyPrefix = keyPrefix + "cancel:"

// cancelTTL bounds how long a cancel flag survives; it only needs to outlive
// the job itself, so the longest job TTL (crawl/search, 3h) plus slack covers
// every kind.
const cancelTTL = 4 * time.Hour

// cancelBroadcaster is a Redis-backed interfaces.CancelBroadcaster: a SET with
// TTL marks a job cancelled, and EXISTS checks it (spec §5: "checked before
// extraction starts and before each discovery admission").
type cancelBroadcaster struct {
	rdb *redis.Client
}

// NewCancelBroadcaster builds a CancelBroadcaster sharing the Manager's Redis
// connection.
func (m *Manager) NewCancelBroadcaster() interfaces.CancelBroadcaster {
	return &cancelBroadcaster{rdb: m.rdb}
}

func (c *cancelBroadcaster) Cancel(ctx context.Context, jobID string) error {
	return c.rdb.Set(ctx, cancelKeyPrefix+jobID, "1", cancelTTL).Err()
}

func (c *cancelBroadcaster) IsCancelled(ctx context.Context, jobID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, cancelKeyPrefix+jobID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
