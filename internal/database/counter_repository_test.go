package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/linkreach/internal/database"
	"github.com/jonesrussell/linkreach/internal/domain"
)

func newCounterRepo(t *testing.T) (*database.CounterRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewCounterRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestCounter_Increment_Upserts(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("INSERT INTO daily_counters").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Increment(ctx, domain.CounterConnections); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestCounter_Increment_InvalidType(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	ctx := context.Background()

	err := repo.Increment(ctx, domain.CounterType("emails_sent"))
	if !errors.Is(err, database.ErrInvalidCounterType) {
		t.Fatalf("expected ErrInvalidCounterType, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestCounter_TodayCount(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT connections_sent FROM daily_counters").
		WillReturnRows(sqlmock.NewRows([]string{"connections_sent"}).AddRow(7))

	count, err := repo.TodayCount(ctx, domain.CounterConnections)
	if err != nil {
		t.Fatalf("TodayCount() error = %v", err)
	}
	if count != 7 {
		t.Errorf("expected count=7, got %d", count)
	}

	expectationsMet(t, mock)
}

func TestCounter_TodayCount_NoRowMeansZero(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT messages_sent FROM daily_counters").
		WillReturnRows(sqlmock.NewRows([]string{"messages_sent"}))

	count, err := repo.TodayCount(ctx, domain.CounterMessages)
	if err != nil {
		t.Fatalf("TodayCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("expected count=0 for missing row, got %d", count)
	}

	expectationsMet(t, mock)
}

func TestCounter_RecentStats(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	ctx := context.Background()
	today := time.Now().Truncate(24 * time.Hour)

	mock.ExpectQuery("SELECT date, connections_sent, messages_sent").
		WithArgs(7).
		WillReturnRows(
			sqlmock.NewRows([]string{"date", "connections_sent", "messages_sent"}).
				AddRow(today, 20, 5).
				AddRow(today.AddDate(0, 0, -1), 18, 12),
		)

	stats, err := repo.RecentStats(ctx, 7)
	if err != nil {
		t.Fatalf("RecentStats() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(stats))
	}
	if stats[0].ConnectionsSent != 20 {
		t.Errorf("expected connections_sent=20, got %d", stats[0].ConnectionsSent)
	}

	expectationsMet(t, mock)
}
