// Package progress implements the Progress Engine (C6): a Redis hash per job
// (`crawl:{jobId}`) with a single atomic finalization predicate, grounded on
// the teacher's Redis-client wiring style (other_examples' animehot crawler
// service constructs and holds a *redis.Client the same way) generalized
// with go-redis/v9's Lua-script support for the atomicity spec §4.6 requires.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// ErrNotFound is returned when a job's Redis hash doesn't exist (never
// started, or evicted).
var ErrNotFound = errors.New("progress: job not found")

// finalizePredicate implements spec §4.6's atomic counter update exactly:
// increment done (and succeeded or failed), then finalize iff finalized==0
// AND ((target>0 AND done>=target) OR (enqueued>0 AND done==enqueued)).
// Run as a single EVAL so concurrent workers can never race the finalize
// transition — the server serializes Lua script execution per guarantees
// go-redis documents for Script.Run.
const finalizePredicate = `
local key = KEYS[1]
local succeeded = tonumber(ARGV[1])
local target = tonumber(ARGV[2])
local finishedAt = ARGV[3]

local done = redis.call('HINCRBY', key, 'done', 1)
if succeeded == 1 then
	redis.call('HINCRBY', key, 'succeeded', 1)
else
	redis.call('HINCRBY', key, 'failed', 1)
end

local finalized = tonumber(redis.call('HGET', key, 'finalized') or '0')
local enqueued = tonumber(redis.call('HGET', key, 'enqueued') or '0')

local justFinalized = 0
if finalized == 0 then
	if (target > 0 and done >= target) or (enqueued > 0 and done == enqueued) then
		justFinalized = 1
	end
end

if justFinalized == 1 then
	redis.call('HSET', key, 'finalized', '1', 'finished_at', finishedAt)
	finalized = 1
end

local succ = tonumber(redis.call('HGET', key, 'succeeded') or '0')
local fail = tonumber(redis.call('HGET', key, 'failed') or '0')

return {done, enqueued, succ, fail, finalized, justFinalized}
`

// Engine implements interfaces.ProgressEngine against a Redis hash per job.
type Engine struct {
	rdb    *redis.Client
	script *redis.Script
	logger arbor.ILogger
}

func New(rdb *redis.Client, logger arbor.ILogger) *Engine {
	return &Engine{rdb: rdb, script: redis.NewScript(finalizePredicate), logger: logger}
}

// Start initializes a job's counters hash, called once at submission time.
func (e *Engine) Start(ctx context.Context, jobID string) error {
	key := models.RedisKey(jobID)
	now := time.Now().UTC()
	err := e.rdb.HSet(ctx, key, map[string]interface{}{
		"job_id":     jobID,
		"enqueued":   0,
		"done":       0,
		"succeeded":  0,
		"failed":     0,
		"started_at": now.Format(time.RFC3339Nano),
		"finalized":  0,
	}).Err()
	if err != nil {
		return fmt.Errorf("progress: start: %w", err)
	}
	return nil
}

// IncrEnqueued bumps the enqueued counter by delta (called by C5 on each
// admission, and by C4/C9 for scrape/search jobs whose target is known
// upfront).
func (e *Engine) IncrEnqueued(ctx context.Context, jobID string, delta int64) error {
	if err := e.rdb.HIncrBy(ctx, models.RedisKey(jobID), "enqueued", delta).Err(); err != nil {
		return fmt.Errorf("progress: incr enqueued: %w", err)
	}
	return nil
}

// IncrDone increments done (and succeeded/failed) by one and atomically
// evaluates the finalize predicate. target is the known page count for
// scrape/search jobs (pass 0 for crawl jobs, which finalize purely on
// done==enqueued).
func (e *Engine) IncrDone(ctx context.Context, jobID string, succeeded bool, target int64) (bool, *models.CrawlState, error) {
	key := models.RedisKey(jobID)
	succeededArg := 0
	if succeeded {
		succeededArg = 1
	}
	finishedAt := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := e.script.Run(ctx, e.rdb, []string{key}, succeededArg, target, finishedAt).Slice()
	if err != nil {
		return false, nil, fmt.Errorf("progress: incr done: %w", err)
	}
	if len(res) != 6 {
		return false, nil, fmt.Errorf("progress: unexpected script result shape: %v", res)
	}

	done := toInt64(res[0])
	enqueued := toInt64(res[1])
	succ := toInt64(res[2])
	fail := toInt64(res[3])
	finalized := toInt64(res[4]) == 1
	justFinalized := toInt64(res[5]) == 1

	state := &models.CrawlState{
		JobID:     jobID,
		Enqueued:  enqueued,
		Done:      done,
		Succeeded: succ,
		Failed:    fail,
		Finalized: finalized,
	}
	if justFinalized {
		if t, err := time.Parse(time.RFC3339Nano, finishedAt); err == nil {
			state.FinishedAt = t
		}
		e.logger.Info().Str("job_id", jobID).Int64("done", done).Int64("enqueued", enqueued).Msg("job finalized")
	}
	return justFinalized, state, nil
}

// Get reads back the full CrawlState for a job.
func (e *Engine) Get(ctx context.Context, jobID string) (*models.CrawlState, error) {
	key := models.RedisKey(jobID)
	m, err := e.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("progress: get: %w", err)
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}

	state := &models.CrawlState{
		JobID:     jobID,
		Enqueued:  parseInt64(m["enqueued"]),
		Done:      parseInt64(m["done"]),
		Succeeded: parseInt64(m["succeeded"]),
		Failed:    parseInt64(m["failed"]),
		Finalized: m["finalized"] == "1",
	}
	if t, err := time.Parse(time.RFC3339Nano, m["started_at"]); err == nil {
		state.StartedAt = t
	}
	if raw := m["finished_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			state.FinishedAt = t
		}
	}
	return state, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func parseInt64(s string) int64 {
	var n int64
	_, _ = fmt.Sscanf(s, "%d", &n)
	return n
}

var _ interfaces.ProgressEngine = (*Engine)(nil)
