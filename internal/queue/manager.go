// Package queue implements the Request Queue & Worker Pool (C3): one
// durable, at-least-once Redis list per (kind × engine) plus the worker
// pool that drains it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

const keyPrefix = "anycrawl:queue:"
const processingSuffix = ":processing"

// Manager lazily creates and caches one redisQueue per (kind, engine) pair,
// mirroring the teacher's thin queue.Manager wrapper — queue operations
// only, no business logic.
type Manager struct {
	rdb    *redis.Client
	logger arbor.ILogger

	mu     sync.Mutex
	queues map[string]*redisQueue
}

// NewManager connects to Redis at url (e.g. "redis://localhost:6379/0").
func NewManager(ctx context.Context, redisURL string, logger arbor.ILogger) (*Manager, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queue: connect redis: %w", err)
	}
	return &Manager{rdb: rdb, logger: logger, queues: make(map[string]*redisQueue)}, nil
}

// Queue returns (creating if needed) the durable queue for (kind, engine).
func (m *Manager) Queue(ctx context.Context, kind models.Kind, engine interfaces.EngineName) (interfaces.Queue, error) {
	name := interfaces.QueueName(kind, engine)

	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[name]; ok {
		return q, nil
	}

	q := &redisQueue{
		rdb:     m.rdb,
		name:    name,
		listKey: keyPrefix + name,
		procKey: keyPrefix + name + processingSuffix,
		logger:  m.logger,
	}
	m.queues[name] = q
	return q, nil
}

func (m *Manager) Close() error {
	return m.rdb.Close()
}

// marshalRequest and unmarshalRequest are shared by redisQueue.
func marshalRequest(req *models.EngineRequest) ([]byte, error) {
	return json.Marshal(req)
}

func unmarshalRequest(data []byte) (*models.EngineRequest, error) {
	var req models.EngineRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
