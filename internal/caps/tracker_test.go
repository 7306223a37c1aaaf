package caps_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jonesrussell/linkreach/internal/caps"
	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/domain"
)

// mockCounterRepo is a func-field mock of the counter repository.
type mockCounterRepo struct {
	incrementFunc   func(ctx context.Context, counterType domain.CounterType) error
	todayCountFunc  func(ctx context.Context, counterType domain.CounterType) (int, error)
	recentStatsFunc func(ctx context.Context, limit int) ([]*domain.DailyCounter, error)
}

func (m *mockCounterRepo) Increment(ctx context.Context, counterType domain.CounterType) error {
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, counterType)
	}
	return nil
}

func (m *mockCounterRepo) TodayCount(ctx context.Context, counterType domain.CounterType) (int, error) {
	if m.todayCountFunc != nil {
		return m.todayCountFunc(ctx, counterType)
	}
	return 0, nil
}

func (m *mockCounterRepo) RecentStats(ctx context.Context, limit int) ([]*domain.DailyCounter, error) {
	if m.recentStatsFunc != nil {
		return m.recentStatsFunc(ctx, limit)
	}
	return nil, nil
}

func testOutreachConfig() *config.OutreachConfig {
	return &config.OutreachConfig{
		DailyConnectionCap: 20,
		DailyMessageCap:    50,
	}
}

func TestTracker_Remaining(t *testing.T) {
	tests := []struct {
		name        string
		counterType domain.CounterType
		todayCount  int
		want        int
	}{
		{"fresh day", domain.CounterConnections, 0, 20},
		{"partially used", domain.CounterConnections, 13, 7},
		{"at cap", domain.CounterConnections, 20, 0},
		{"over cap clamps to zero", domain.CounterConnections, 25, 0},
		{"messages use their own ceiling", domain.CounterMessages, 10, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCounterRepo{
				todayCountFunc: func(_ context.Context, _ domain.CounterType) (int, error) {
					return tt.todayCount, nil
				},
			}
			tracker := caps.NewTracker(repo, testOutreachConfig())

			got, err := tracker.Remaining(context.Background(), tt.counterType)
			if err != nil {
				t.Fatalf("Remaining() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTracker_CapReached(t *testing.T) {
	repo := &mockCounterRepo{
		todayCountFunc: func(_ context.Context, _ domain.CounterType) (int, error) {
			return 20, nil
		},
	}
	tracker := caps.NewTracker(repo, testOutreachConfig())

	reached, err := tracker.CapReached(context.Background(), domain.CounterConnections)
	if err != nil {
		t.Fatalf("CapReached() error = %v", err)
	}
	if !reached {
		t.Error("expected cap to be reached at 20/20")
	}
}

func TestTracker_Record_PropagatesError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockCounterRepo{
		incrementFunc: func(_ context.Context, _ domain.CounterType) error {
			return wantErr
		},
	}
	tracker := caps.NewTracker(repo, testOutreachConfig())

	err := tracker.Record(context.Background(), domain.CounterConnections)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped increment error, got %v", err)
	}
}
