package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/linkreach/internal/domain"
)

// CounterRepository handles database operations for daily action counters.
type CounterRepository struct {
	db *sqlx.DB
}

// NewCounterRepository creates a new counter repository.
func NewCounterRepository(db *sqlx.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Increment bumps today's counter of the given type by one, creating the
// row if it doesn't exist yet. The upsert is a single statement so that
// concurrent jobs incrementing the same counter serialize on the row
// without any caller-side coordination.
func (r *CounterRepository) Increment(ctx context.Context, counterType domain.CounterType) error {
	if !counterType.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidCounterType, counterType)
	}

	// counterType is validated above; it names one of two fixed columns.
	query := fmt.Sprintf(`
		INSERT INTO daily_counters (date, %[1]s)
		VALUES (CURRENT_DATE, 1)
		ON CONFLICT (date)
		DO UPDATE SET %[1]s = daily_counters.%[1]s + 1
	`, counterType)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to increment daily counter: %w", err)
	}

	return nil
}

// TodayCount returns today's count for the given counter type. A missing
// row means nothing has been sent today.
func (r *CounterRepository) TodayCount(ctx context.Context, counterType domain.CounterType) (int, error) {
	if !counterType.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCounterType, counterType)
	}

	query := fmt.Sprintf(`SELECT %s FROM daily_counters WHERE date = CURRENT_DATE`, counterType)

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get daily count: %w", err)
	}

	return count, nil
}

// RecentStats returns the most recent daily counter rows, newest first.
func (r *CounterRepository) RecentStats(ctx context.Context, limit int) ([]*domain.DailyCounter, error) {
	var counters []*domain.DailyCounter

	query := `
		SELECT date, connections_sent, messages_sent
		FROM daily_counters
		ORDER BY date DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &counters, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	if counters == nil {
		counters = []*domain.DailyCounter{}
	}

	return counters, nil
}
