// Package caps enforces self-imposed daily action ceilings. Counts are
// backed by the daily_counters table so they survive restarts and are
// shared by concurrent processes.
package caps

import (
	"context"
	"fmt"

	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/database"
	"github.com/jonesrussell/linkreach/internal/domain"
)

// Tracker answers "how many actions of this kind happened today, and am I
// allowed another one?" against the configured ceilings.
type Tracker struct {
	counters      database.CounterRepositoryInterface
	connectionCap int
	messageCap    int
}

// NewTracker creates a cap tracker over the counter repository.
func NewTracker(counters database.CounterRepositoryInterface, cfg *config.OutreachConfig) *Tracker {
	return &Tracker{
		counters:      counters,
		connectionCap: cfg.DailyConnectionCap,
		messageCap:    cfg.DailyMessageCap,
	}
}

// Cap returns the configured ceiling for the given counter type.
func (t *Tracker) Cap(counterType domain.CounterType) int {
	if counterType == domain.CounterMessages {
		return t.messageCap
	}
	return t.connectionCap
}

// TodayCount returns today's count for the given counter type.
func (t *Tracker) TodayCount(ctx context.Context, counterType domain.CounterType) (int, error) {
	return t.counters.TodayCount(ctx, counterType)
}

// Remaining returns how many actions of the given type may still be
// performed today. Never negative.
func (t *Tracker) Remaining(ctx context.Context, counterType domain.CounterType) (int, error) {
	count, err := t.counters.TodayCount(ctx, counterType)
	if err != nil {
		return 0, fmt.Errorf("failed to read today's count: %w", err)
	}

	remaining := t.Cap(counterType) - count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// CapReached reports whether today's count has reached the ceiling.
func (t *Tracker) CapReached(ctx context.Context, counterType domain.CounterType) (bool, error) {
	remaining, err := t.Remaining(ctx, counterType)
	if err != nil {
		return false, err
	}

	return remaining == 0, nil
}

// Record registers one successful action of the given type.
func (t *Tracker) Record(ctx context.Context, counterType domain.CounterType) error {
	if err := t.counters.Increment(ctx, counterType); err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}

	return nil
}
