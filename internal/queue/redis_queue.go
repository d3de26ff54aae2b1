package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// redisQueue is one (kind × engine) durable channel (spec §4.3): LPUSH to
// enqueue, BRPOPLPUSH from the other end into a processing list to dequeue
// (so initial attempts come out first in, first out) with at-least-once
// semantics — a delivery only leaves the processing list once Ack is
// called, so a crash between dequeue and ack leaves it recoverable.
type redisQueue struct {
	rdb     *redis.Client
	name    string
	listKey string
	procKey string
	logger  arbor.ILogger
}

func (q *redisQueue) Enqueue(ctx context.Context, req *models.EngineRequest) error {
	data, err := marshalRequest(req)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.listKey, data).Err()
}

// Dequeue blocks until a message is available or ctx is cancelled. The
// returned Delivery's Ack removes the body from the processing list; Nack
// reinserts it at the dequeue end of the main list after the given backoff,
// so a retry is popped ahead of requests still waiting.
func (q *redisQueue) Dequeue(ctx context.Context) (*interfaces.Delivery, error) {
	res, err := q.rdb.BRPopLPush(ctx, q.listKey, q.procKey, 5*time.Second).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	req, err := unmarshalRequest([]byte(res))
	if err != nil {
		// Malformed payload: drop it from processing so it doesn't wedge the
		// queue, and surface the error to the caller.
		q.rdb.LRem(context.Background(), q.procKey, 1, res)
		return nil, err
	}

	body := res
	return &interfaces.Delivery{
		Request: req,
		Ack: func(ctx context.Context) error {
			return q.rdb.LRem(ctx, q.procKey, 1, body).Err()
		},
		Nack: func(ctx context.Context, backoff time.Duration) error {
			if err := q.rdb.LRem(ctx, q.procKey, 1, body).Err(); err != nil {
				return err
			}
			if backoff <= 0 {
				return q.rdb.RPush(ctx, q.listKey, body).Err()
			}
			// Requeue after the backoff on its own goroutine so the worker
			// is freed to pick up its next delivery immediately.
			go func() {
				time.Sleep(backoff)
				if err := q.rdb.RPush(context.Background(), q.listKey, body).Err(); err != nil {
					q.logger.Warn().Err(err).Str("queue", q.name).Msg("failed to requeue after backoff")
				}
			}()
			return nil
		},
	}, nil
}

func (q *redisQueue) Close() error { return nil }
