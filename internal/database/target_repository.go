package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/linkreach/internal/domain"
)

// targetSelectColumns lists columns for SELECT queries on targets.
const targetSelectColumns = `id, url, display_name, status, error_message,
	created_at, updated_at, processed_at`

// TargetRepository handles database operations for outreach targets.
type TargetRepository struct {
	db *sqlx.DB
}

// NewTargetRepository creates a new target repository.
func NewTargetRepository(db *sqlx.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// Import inserts the given URLs as pending targets. URLs already present
// are skipped via ON CONFLICT DO NOTHING and counted as duplicates. Each
// URL is inserted independently; the batch as a whole is not atomic.
func (r *TargetRepository) Import(ctx context.Context, urls []string) (*domain.ImportResult, error) {
	result := &domain.ImportResult{Total: len(urls)}

	query := `INSERT INTO targets (url, status) VALUES ($1, $2) ON CONFLICT (url) DO NOTHING`

	for _, url := range urls {
		res, err := r.db.ExecContext(ctx, query, url, domain.StatusPending)
		if err != nil {
			return nil, fmt.Errorf("failed to import target %s: %w", url, err)
		}

		affected, affectedErr := res.RowsAffected()
		if affectedErr != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", affectedErr)
		}

		if affected > 0 {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

// GetByStatus returns targets with the given status in insertion order.
// A limit of 0 means unbounded.
func (r *TargetRepository) GetByStatus(ctx context.Context, status string, limit int) ([]*domain.Target, error) {
	var targets []*domain.Target

	query := `SELECT ` + targetSelectColumns + ` FROM targets WHERE status = $1 ORDER BY id`
	args := []any{status}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	if err := r.db.SelectContext(ctx, &targets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get targets by status: %w", err)
	}

	if targets == nil {
		targets = []*domain.Target{}
	}

	return targets, nil
}

// GetByURL retrieves a single target by its URL.
func (r *TargetRepository) GetByURL(ctx context.Context, url string) (*domain.Target, error) {
	var target domain.Target

	query := `SELECT ` + targetSelectColumns + ` FROM targets WHERE url = $1`

	if err := r.db.GetContext(ctx, &target, query, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, url)
		}
		return nil, fmt.Errorf("failed to get target: %w", err)
	}

	return &target, nil
}

// UpdateStatus sets a target's status and refreshes updated_at. The display
// name and error message are only written when non-nil, so an update never
// clears a previously observed name. Marks processed_at as a side effect.
func (r *TargetRepository) UpdateStatus(
	ctx context.Context,
	url string,
	status string,
	displayName *string,
	errorMessage *string,
) error {
	query := `
		UPDATE targets
		SET status = $2,
			display_name = COALESCE($3, display_name),
			error_message = $4,
			updated_at = NOW(),
			processed_at = NOW()
		WHERE url = $1
	`

	result, err := r.db.ExecContext(ctx, query, url, status, displayName, errorMessage)
	return execRequireRows(result, err, fmt.Errorf("%w: %s", ErrTargetNotFound, url))
}

// ResetErrored moves every errored target back to pending, clearing its
// error message. Returns the number of targets affected. Idempotent.
func (r *TargetRepository) ResetErrored(ctx context.Context) (int64, error) {
	query := `
		UPDATE targets
		SET status = $1, error_message = NULL, updated_at = NOW()
		WHERE status = $2
	`

	result, err := r.db.ExecContext(ctx, query, domain.StatusPending, domain.StatusError)
	if err != nil {
		return 0, fmt.Errorf("failed to reset errored targets: %w", err)
	}

	affected, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}

	return affected, nil
}

// Summary returns per-status target counts plus a "total" entry. Statuses
// with no rows are reported as zero.
func (r *TargetRepository) Summary(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM targets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get target summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]int, len(domain.AllStatuses)+1)
	for _, status := range domain.AllStatuses {
		summary[status] = 0
	}

	total := 0
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", scanErr)
		}
		summary[status] = count
		total += count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to read summary rows: %w", rowsErr)
	}

	summary["total"] = total

	return summary, nil
}

// ListAll returns every target in insertion order, for export.
func (r *TargetRepository) ListAll(ctx context.Context) ([]*domain.Target, error) {
	var targets []*domain.Target

	query := `SELECT ` + targetSelectColumns + ` FROM targets ORDER BY id`

	if err := r.db.SelectContext(ctx, &targets, query); err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	if targets == nil {
		targets = []*domain.Target{}
	}

	return targets, nil
}
