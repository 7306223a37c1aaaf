package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CancelRepository handles cancellation signals for running jobs.
//
// Cancellation is append-only: requesters insert a signal row, and only the
// runner owning the job reads it. This keeps the jobs row single-writer —
// no requester ever mutates a job directly.
type CancelRepository struct {
	db *sqlx.DB
}

// NewCancelRepository creates a new cancel repository.
func NewCancelRepository(db *sqlx.DB) *CancelRepository {
	return &CancelRepository{db: db}
}

// Request records a cancellation request for the given job.
func (r *CancelRepository) Request(ctx context.Context, jobID string) error {
	query := `INSERT INTO job_cancel_requests (job_id) VALUES ($1)`

	if _, err := r.db.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("failed to request job cancellation: %w", err)
	}

	return nil
}

// Requested reports whether a cancellation signal exists for the given job.
func (r *CancelRepository) Requested(ctx context.Context, jobID string) (bool, error) {
	var count int

	query := `SELECT COUNT(*) FROM job_cancel_requests WHERE job_id = $1`

	if err := r.db.GetContext(ctx, &count, query, jobID); err != nil {
		return false, fmt.Errorf("failed to check job cancellation: %w", err)
	}

	return count > 0, nil
}
