package interfaces

import (
	"context"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// JobListOptions filters JobStorage.ListJobs (cursor-based pagination per §4.4).
type JobListOptions struct {
	Status Status
	Kind   models.Kind
	Cursor string
	Limit  int
}

// Status mirrors models.Status for filter purposes without forcing callers to
// import models just to build a filter.
type Status = models.Status

// JobStorage is the C4 repository contract for the `jobs` table. Both the
// postgresql and sqlite dialects implement it behind the same interface.
type JobStorage interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)

	// UpdateCounters atomically adjusts total/completed/failed by the given
	// deltas, returning the row as it stood after the update.
	UpdateCounters(ctx context.Context, jobID string, totalDelta, completedDelta, failedDelta int) (*models.Job, error)

	// MarkTerminal transitions a job to a terminal status exactly once; callers
	// racing to finalize the same job will have all but one call return
	// ErrAlreadyTerminal.
	MarkTerminal(ctx context.Context, jobID string, status models.Status, isSuccess bool, errMsg string) error

	ListJobs(ctx context.Context, opts JobListOptions) ([]*models.Job, string, error)
	DeleteExpired(ctx context.Context) (int, error)
}

// ResultStorage is the C4 repository contract for the `job_results` table.
// Results are retrieved by skip/limit, not a keyset cursor, because the
// pagination contract (spec §4.4) is defined in terms of a numeric offset:
// "next cursor = skip + returned.length iff skip + returned < total".
type ResultStorage interface {
	InsertResult(ctx context.Context, result *models.JobResult) error

	// ListResults returns up to limit results ordered by insertion, starting
	// at skip, plus the total row count for the job (used to decide whether
	// a next page exists).
	ListResults(ctx context.Context, jobUUID string, skip, limit int) (results []*models.JobResult, total int, err error)

	CountResults(ctx context.Context, jobUUID string) (succeeded, failed int, err error)
	DeleteByJob(ctx context.Context, jobUUID string) error
}
