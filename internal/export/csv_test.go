package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/export"
)

// mockTargetRepo serves a fixed target list.
type mockTargetRepo struct {
	listAllFunc func(ctx context.Context) ([]*domain.Target, error)
}

func (m *mockTargetRepo) Import(_ context.Context, _ []string) (*domain.ImportResult, error) {
	return nil, nil
}

func (m *mockTargetRepo) GetByStatus(_ context.Context, _ string, _ int) ([]*domain.Target, error) {
	return nil, nil
}

func (m *mockTargetRepo) GetByURL(_ context.Context, _ string) (*domain.Target, error) {
	return nil, nil
}

func (m *mockTargetRepo) UpdateStatus(_ context.Context, _, _ string, _, _ *string) error {
	return nil
}

func (m *mockTargetRepo) ResetErrored(_ context.Context) (int64, error) { return 0, nil }

func (m *mockTargetRepo) Summary(_ context.Context) (map[string]int, error) { return nil, nil }

func (m *mockTargetRepo) ListAll(ctx context.Context) ([]*domain.Target, error) {
	return m.listAllFunc(ctx)
}

func TestExporter_Write(t *testing.T) {
	name := "Alice Example"
	errMsg := "profile not found"
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	repo := &mockTargetRepo{
		listAllFunc: func(_ context.Context) ([]*domain.Target, error) {
			return []*domain.Target{
				{
					URL:         "https://www.linkedin.com/in/alice",
					DisplayName: &name,
					Status:      domain.StatusRequestSent,
					CreatedAt:   created,
					UpdatedAt:   created,
				},
				{
					URL:          "https://www.linkedin.com/in/ghost",
					Status:       domain.StatusError,
					ErrorMessage: &errMsg,
					CreatedAt:    created,
					UpdatedAt:    created,
				},
			}, nil
		},
	}

	var buf bytes.Buffer
	count, err := export.NewExporter(repo).Write(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV is malformed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}

	header := records[0]
	want := []string{"url", "display_name", "status", "error_message", "created_at", "updated_at"}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want[i])
		}
	}

	if records[1][1] != "Alice Example" {
		t.Errorf("display_name = %q", records[1][1])
	}
	if records[2][3] != "profile not found" {
		t.Errorf("error_message = %q", records[2][3])
	}
}
