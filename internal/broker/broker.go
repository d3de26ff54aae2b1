package broker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/common"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// Broker is C4's orchestration surface: job submission, status lookup,
// paginated result retrieval, and cancellation — the operations
// internal/httpapi calls directly rather than reaching into Repository
// itself, mirroring how the teacher keeps its HTTP handlers thin over a
// storage-owning service type.
type Broker struct {
	jobs     interfaces.JobStorage
	results  interfaces.ResultStorage
	progress interfaces.ProgressEngine
	cancels  interfaces.CancelBroadcaster
	logger   arbor.ILogger
}

func NewBroker(jobs interfaces.JobStorage, results interfaces.ResultStorage, progress interfaces.ProgressEngine, cancels interfaces.CancelBroadcaster, logger arbor.ILogger) *Broker {
	return &Broker{jobs: jobs, results: results, progress: progress, cancels: cancels, logger: logger}
}

// Submit persists a new job row and starts its C6 progress counters. The
// caller (internal/app's request handler) enqueues the seed EngineRequest
// and/or seeds the Frontier afterward — Submit only owns the durable record.
func (b *Broker) Submit(ctx context.Context, kind models.Kind, engine, seedURL string, payload []byte, apiKeyID, origin string) (*models.Job, error) {
	jobID := common.NewJobID()
	job := models.NewJob(uuid.New().String(), jobID, kind, engine, seedURL, payload)
	job.APIKeyID = apiKeyID
	job.Origin = origin

	if err := b.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("broker: submit: %w", err)
	}
	if err := b.progress.Start(ctx, jobID); err != nil {
		b.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to start progress counters")
	}
	b.logger.Info().Str("job_id", jobID).Str("kind", string(kind)).Str("url", seedURL).Msg("job submitted")
	return job, nil
}

// Status returns the job row plus its live C6 counters.
func (b *Broker) Status(ctx context.Context, jobID string) (*models.Job, *models.CrawlState, error) {
	job, err := b.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	state, err := b.progress.Get(ctx, jobID)
	if err != nil {
		b.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to read progress state")
		state = nil
	}
	return job, state, nil
}

// Results pages a job's results (spec §4.4 pagination contract): skip/limit
// in, a clamped page plus the next skip (if any) out.
func (b *Broker) Results(ctx context.Context, jobID string, skip, limit int) (results []*models.JobResult, total int, next *int, err error) {
	job, err := b.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, 0, nil, err
	}

	limit = ClampLimit(limit)
	results, total, err = b.results.ListResults(ctx, job.UUID, skip, limit)
	if err != nil {
		return nil, 0, nil, err
	}

	if n, ok := NextSkip(skip, len(results), total); ok {
		next = &n
	}
	return results, total, next, nil
}

// Cancel broadcasts the cancel flag (observed by C3 workers and C5 discovery
// admission) and marks the job terminal. Finished jobs cannot be cancelled
// (spec §4.4: "cannot be cancelled, returns conflict").
func (b *Broker) Cancel(ctx context.Context, jobID string) error {
	job, err := b.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}

	if err := b.cancels.Cancel(ctx, jobID); err != nil {
		return fmt.Errorf("broker: broadcast cancel: %w", err)
	}
	if err := b.jobs.MarkTerminal(ctx, jobID, models.StatusCancelled, false, "cancelled by request"); err != nil {
		return fmt.Errorf("broker: mark cancelled: %w", err)
	}
	b.logger.Info().Str("job_id", jobID).Msg("job cancelled")
	return nil
}

// SweepExpired deletes jobs past their job_expire_at TTL (spec §3), mirroring
// the teacher's scheduled-sweep pattern (internal/app's cron-driven cleanup).
func (b *Broker) SweepExpired(ctx context.Context) (int, error) {
	return b.jobs.DeleteExpired(ctx)
}

// RecordResult appends one page's outcome to job_results. jobID is the
// public job_id (what EngineRequest.UserData carries); it is resolved to the
// job's storage UUID before insertion since that's the column job_results
// actually joins on.
func (b *Broker) RecordResult(ctx context.Context, jobID string, result *models.JobResult) error {
	job, err := b.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("broker: record result: resolve job: %w", err)
	}
	result.UUID = uuid.New().String()
	result.JobUUID = job.UUID
	if err := b.results.InsertResult(ctx, result); err != nil {
		return fmt.Errorf("broker: record result: %w", err)
	}
	return nil
}

// IncrementCounters adjusts a job's total/completed/failed columns by one
// page's outcome (spec §4.6: "DB counters (total/completed/failed) are
// incremented per page using arithmetic updates").
func (b *Broker) IncrementCounters(ctx context.Context, jobID string, succeeded bool) error {
	completedDelta, failedDelta := 1, 0
	if !succeeded {
		completedDelta, failedDelta = 0, 1
	}
	if _, err := b.jobs.UpdateCounters(ctx, jobID, 1, completedDelta, failedDelta); err != nil {
		return fmt.Errorf("broker: increment counters: %w", err)
	}
	return nil
}

// MarkJobTerminal writes a job's terminal status exactly once; a second call
// racing a prior finalize is swallowed (ErrAlreadyTerminal), matching Cancel's
// same at-most-once guarantee.
func (b *Broker) MarkJobTerminal(ctx context.Context, jobID string, status models.Status, isSuccess bool, errMsg string) error {
	err := b.jobs.MarkTerminal(ctx, jobID, status, isSuccess, errMsg)
	if err != nil && err != ErrAlreadyTerminal {
		return fmt.Errorf("broker: mark terminal: %w", err)
	}
	return nil
}
