package broker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// ErrAlreadyTerminal is returned by MarkTerminal when a job has already
// settled into a terminal status — callers racing to finalize the same job
// will have all but one call return this.
var ErrAlreadyTerminal = errors.New("broker: job already terminal")

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("broker: not found")

// Repository implements interfaces.JobStorage and interfaces.ResultStorage
// against a *DB of either dialect, generalized from the teacher's
// storage/sqlite.JobStorage (same method shape, same arbor logging) but SQL
// written portably and rebound per-dialect instead of hardcoding `?`.
type Repository struct {
	db     *DB
	logger arbor.ILogger
}

// NewRepository wires a Repository against an already-migrated DB.
func NewRepository(db *DB, logger arbor.ILogger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	if job.UUID == "" {
		job.UUID = uuid.New().String()
	}
	query := r.db.rebind(`
		INSERT INTO jobs (
			uuid, job_id, job_type, job_queue_name, job_expire_at, url, payload,
			api_key_id, total, completed, failed, credits_used, origin, status,
			is_success, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		job.UUID, job.JobID, string(job.Kind), job.QueueName, job.ExpiresAt, job.SeedURL, string(job.Payload),
		job.APIKeyID, job.Total, job.Completed, job.Failed, job.CreditsUsed, job.Origin, string(job.Status),
		job.IsSuccess, job.ErrorMessage, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("broker: create job: %w", err)
	}
	return nil
}

func (r *Repository) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	query := r.db.rebind(`
		SELECT uuid, job_id, job_type, job_queue_name, job_expire_at, url, payload,
		       api_key_id, total, completed, failed, credits_used, origin, status,
		       is_success, error_message, created_at, updated_at
		FROM jobs WHERE job_id = ?
	`)
	var job models.Job
	var payload, kind, status string
	err := r.db.QueryRowxContext(ctx, query, jobID).Scan(
		&job.UUID, &job.JobID, &kind, &job.QueueName, &job.ExpiresAt, &job.SeedURL, &payload,
		&job.APIKeyID, &job.Total, &job.Completed, &job.Failed, &job.CreditsUsed, &job.Origin, &status,
		&job.IsSuccess, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("broker: get job: %w", err)
	}
	job.Kind = models.Kind(kind)
	job.Status = models.Status(status)
	job.Payload = []byte(payload)
	return &job, nil
}

// UpdateCounters atomically adjusts total/completed/failed in a single UPDATE,
// avoiding the read-modify-write race the teacher's JSON-patch counterpart
// (UpdateProgressCountersAtomic) worked around a different way.
func (r *Repository) UpdateCounters(ctx context.Context, jobID string, totalDelta, completedDelta, failedDelta int) (*models.Job, error) {
	query := r.db.rebind(`
		UPDATE jobs
		SET total = total + ?, completed = completed + ?, failed = failed + ?, updated_at = ?
		WHERE job_id = ?
	`)
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, totalDelta, completedDelta, failedDelta, now, jobID)
	if err != nil {
		return nil, fmt.Errorf("broker: update counters: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetJob(ctx, jobID)
}

// MarkTerminal transitions a job to a terminal status exactly once: the
// WHERE clause only matches rows not already terminal, so a second caller
// racing the same job gets zero rows affected and ErrAlreadyTerminal.
func (r *Repository) MarkTerminal(ctx context.Context, jobID string, status models.Status, isSuccess bool, errMsg string) error {
	query := r.db.rebind(`
		UPDATE jobs
		SET status = ?, is_success = ?, error_message = ?, updated_at = ?
		WHERE job_id = ? AND status NOT IN (?, ?, ?)
	`)
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		string(status), isSuccess, errMsg, now, jobID,
		string(models.StatusCompleted), string(models.StatusFailed), string(models.StatusCancelled),
	)
	if err != nil {
		return fmt.Errorf("broker: mark terminal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("broker: mark terminal rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyTerminal
	}
	return nil
}

func (r *Repository) ListJobs(ctx context.Context, opts interfaces.JobListOptions) ([]*models.Job, string, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT uuid, job_id, job_type, job_queue_name, job_expire_at, url, payload,
		       api_key_id, total, completed, failed, credits_used, origin, status,
		       is_success, error_message, created_at, updated_at
		FROM jobs WHERE 1=1
	`
	var args []interface{}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if opts.Kind != "" {
		query += " AND job_type = ?"
		args = append(args, string(opts.Kind))
	}
	if opts.Cursor != "" {
		query += " AND job_id > ?"
		args = append(args, opts.Cursor)
	}
	query += " ORDER BY job_id ASC LIMIT ?"
	args = append(args, limit+1)

	rows, err := r.db.QueryxContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, "", fmt.Errorf("broker: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var job models.Job
		var payload, kind, status string
		if err := rows.Scan(
			&job.UUID, &job.JobID, &kind, &job.QueueName, &job.ExpiresAt, &job.SeedURL, &payload,
			&job.APIKeyID, &job.Total, &job.Completed, &job.Failed, &job.CreditsUsed, &job.Origin, &status,
			&job.IsSuccess, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, "", fmt.Errorf("broker: scan job: %w", err)
		}
		job.Kind = models.Kind(kind)
		job.Status = models.Status(status)
		job.Payload = []byte(payload)
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var nextCursor string
	if len(jobs) > limit {
		jobs = jobs[:limit]
		nextCursor = jobs[len(jobs)-1].JobID
	}
	return jobs, nextCursor, nil
}

func (r *Repository) DeleteExpired(ctx context.Context) (int, error) {
	query := r.db.rebind(`DELETE FROM jobs WHERE job_expire_at < ?`)
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("broker: delete expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("broker: delete expired rows affected: %w", err)
	}
	if n > 0 {
		r.logger.Info().Int64("count", n).Msg("deleted expired jobs")
	}
	return int(n), nil
}

func (r *Repository) InsertResult(ctx context.Context, result *models.JobResult) error {
	if result.UUID == "" {
		result.UUID = uuid.New().String()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now

	query := r.db.rebind(`
		INSERT INTO job_results (uuid, job_uuid, url, data, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		result.UUID, result.JobUUID, result.URL, string(result.Data), string(result.Status),
		result.CreatedAt, result.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("broker: insert result: %w", err)
	}
	return nil
}

// ListResults pages by insertion order (spec §4.5/§4.7: "stamped by arrival
// time, used as the pagination key"), returning the job's total result count
// alongside the page so the caller can derive the "next" cursor (pagination.go).
func (r *Repository) ListResults(ctx context.Context, jobUUID string, skip, limit int) ([]*models.JobResult, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}

	total, err := r.countAllResults(ctx, jobUUID)
	if err != nil {
		return nil, 0, err
	}

	query := r.db.rebind(`
		SELECT uuid, job_uuid, url, data, status, created_at, updated_at
		FROM job_results WHERE job_uuid = ?
		ORDER BY created_at ASC, uuid ASC
		LIMIT ? OFFSET ?
	`)
	rows, err := r.db.QueryxContext(ctx, query, jobUUID, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("broker: list results: %w", err)
	}
	defer rows.Close()

	var results []*models.JobResult
	for rows.Next() {
		var res models.JobResult
		var data, status string
		if err := rows.Scan(&res.UUID, &res.JobUUID, &res.URL, &data, &status, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("broker: scan result: %w", err)
		}
		res.Data = []byte(data)
		res.Status = models.ResultStatus(status)
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *Repository) countAllResults(ctx context.Context, jobUUID string) (int, error) {
	query := r.db.rebind(`SELECT COUNT(*) FROM job_results WHERE job_uuid = ?`)
	var total int
	if err := r.db.QueryRowxContext(ctx, query, jobUUID).Scan(&total); err != nil {
		return 0, fmt.Errorf("broker: count results: %w", err)
	}
	return total, nil
}

func (r *Repository) CountResults(ctx context.Context, jobUUID string) (succeeded, failed int, err error) {
	query := r.db.rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM job_results WHERE job_uuid = ?
	`)
	err = r.db.QueryRowxContext(ctx, query, string(models.ResultSuccess), string(models.ResultFailed), jobUUID).Scan(&succeeded, &failed)
	if err != nil {
		err = fmt.Errorf("broker: count results: %w", err)
	}
	return
}

func (r *Repository) DeleteByJob(ctx context.Context, jobUUID string) error {
	query := r.db.rebind(`DELETE FROM job_results WHERE job_uuid = ?`)
	_, err := r.db.ExecContext(ctx, query, jobUUID)
	if err != nil {
		return fmt.Errorf("broker: delete results by job: %w", err)
	}
	return nil
}

var (
	_ interfaces.JobStorage    = (*Repository)(nil)
	_ interfaces.ResultStorage = (*Repository)(nil)
)
