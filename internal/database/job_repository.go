package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/linkreach/internal/domain"
)

// jobSelectColumns lists columns for SELECT queries on jobs.
const jobSelectColumns = `id, mode, status, live_status, dry_run, total_targets,
	processed, sent, skipped, errors, created_at, started_at, completed_at, error_message`

// JobRepository handles database operations for outreach jobs.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job into the database.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (id, mode, status, live_status, dry_run, total_targets)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		job.ID,
		job.Mode,
		job.Status,
		job.LiveStatus,
		job.DryRun,
		job.TotalTargets,
	).Scan(&job.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job

	query := `SELECT ` + jobSelectColumns + ` FROM jobs WHERE id = $1`

	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// List retrieves jobs, newest first, optionally filtered by status.
func (r *JobRepository) List(ctx context.Context, status string, limit, offset int) ([]*domain.Job, error) {
	var jobs []*domain.Job
	var query string
	var args []any

	if status != "" {
		query = `SELECT ` + jobSelectColumns + ` FROM jobs
			WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = []any{status, limit, offset}
	} else {
		query = `SELECT ` + jobSelectColumns + ` FROM jobs
			ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = []any{limit, offset}
	}

	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	if jobs == nil {
		jobs = []*domain.Job{}
	}

	return jobs, nil
}

// Update writes a job's mutable fields. Only the runner owning a job may
// call this; cancellation requests go through CancelRepository instead.
func (r *JobRepository) Update(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs
		SET status = $2, live_status = $3, total_targets = $4, processed = $5,
			sent = $6, skipped = $7, errors = $8, started_at = $9,
			completed_at = $10, error_message = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.Status,
		job.LiveStatus,
		job.TotalTargets,
		job.Processed,
		job.Sent,
		job.Skipped,
		job.Errors,
		job.StartedAt,
		job.CompletedAt,
		job.ErrorMessage,
	)

	return execRequireRows(result, err, fmt.Errorf("%w: %s", ErrJobNotFound, job.ID))
}

// Count returns the number of jobs, optionally filtered by status.
func (r *JobRepository) Count(ctx context.Context, status string) (int, error) {
	var count int
	var err error

	if status != "" {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM jobs WHERE status = $1`, status)
	} else {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM jobs`)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	return count, nil
}
