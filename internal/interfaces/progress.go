package interfaces

import (
	"context"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// ProgressEngine is the Redis-backed atomic counter store (C6, spec §4.6).
type ProgressEngine interface {
	Start(ctx context.Context, jobID string) error
	IncrEnqueued(ctx context.Context, jobID string, delta int64) error

	// IncrDone increments done (and succeeded or failed) by one, then
	// evaluates the finalization predicate atomically. When it returns
	// finalized==true, the caller (and only the caller) must write the
	// terminal Job row.
	IncrDone(ctx context.Context, jobID string, succeeded bool, target int64) (finalized bool, summary *models.CrawlState, err error)

	Get(ctx context.Context, jobID string) (*models.CrawlState, error)
}
