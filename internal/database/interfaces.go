package database

import (
	"context"

	"github.com/jonesrussell/linkreach/internal/domain"
)

// TargetRepositoryInterface defines the interface for target persistence.
type TargetRepositoryInterface interface {
	Import(ctx context.Context, urls []string) (*domain.ImportResult, error)
	GetByStatus(ctx context.Context, status string, limit int) ([]*domain.Target, error)
	GetByURL(ctx context.Context, url string) (*domain.Target, error)
	UpdateStatus(ctx context.Context, url, status string, displayName, errorMessage *string) error
	ResetErrored(ctx context.Context) (int64, error)
	Summary(ctx context.Context) (map[string]int, error)
	ListAll(ctx context.Context) ([]*domain.Target, error)
}

// CounterRepositoryInterface defines the interface for daily counters.
type CounterRepositoryInterface interface {
	Increment(ctx context.Context, counterType domain.CounterType) error
	TodayCount(ctx context.Context, counterType domain.CounterType) (int, error)
	RecentStats(ctx context.Context, limit int) ([]*domain.DailyCounter, error)
}

// JobRepositoryInterface defines the interface for job persistence.
type JobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context, status string, limit, offset int) ([]*domain.Job, error)
	Update(ctx context.Context, job *domain.Job) error
	Count(ctx context.Context, status string) (int, error)
}

// CancelRepositoryInterface defines the interface for cancellation signals.
type CancelRepositoryInterface interface {
	Request(ctx context.Context, jobID string) error
	Requested(ctx context.Context, jobID string) (bool, error)
}

// Compile-time interface checks.
var (
	_ TargetRepositoryInterface  = (*TargetRepository)(nil)
	_ CounterRepositoryInterface = (*CounterRepository)(nil)
	_ JobRepositoryInterface     = (*JobRepository)(nil)
	_ CancelRepositoryInterface  = (*CancelRepository)(nil)
)
