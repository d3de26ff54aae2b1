package interfaces

import (
	"context"
	"time"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// QueueName identifies one (kind × engine) durable queue, e.g. "crawl-browserA".
func QueueName(kind models.Kind, engine EngineName) string {
	return string(kind) + "-" + string(engine)
}

// Delivery wraps a dequeued EngineRequest with the ack/nack handles a worker
// needs to complete or requeue it.
type Delivery struct {
	Request *models.EngineRequest
	Ack     func(ctx context.Context) error
	Nack    func(ctx context.Context, backoff time.Duration) error
}

// Queue is one durable, at-least-once (kind × engine) channel (C3, spec §4.3).
type Queue interface {
	Enqueue(ctx context.Context, req *models.EngineRequest) error
	Dequeue(ctx context.Context) (*Delivery, error)
	Close() error
}

// QueueManager owns every per-(kind, engine) Queue and lazily creates them.
type QueueManager interface {
	Queue(ctx context.Context, kind models.Kind, engine EngineName) (Queue, error)
	Close() error
}

// CancelBroadcaster publishes and observes per-job cancel flags (spec §4.3,
// §4.4: "broadcast cancel flag via Redis").
type CancelBroadcaster interface {
	Cancel(ctx context.Context, jobID string) error
	IsCancelled(ctx context.Context, jobID string) (bool, error)
}
