// Package export writes target records to CSV for external review.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonesrussell/linkreach/internal/database"
)

// csvHeader is the exported column set, stable for downstream consumers.
var csvHeader = []string{"url", "display_name", "status", "error_message", "created_at", "updated_at"}

// Exporter writes the target store to CSV.
type Exporter struct {
	targets database.TargetRepositoryInterface
}

// NewExporter creates a CSV exporter over the target store.
func NewExporter(targets database.TargetRepositoryInterface) *Exporter {
	return &Exporter{targets: targets}
}

// Write streams every target as one CSV row.
func (e *Exporter) Write(ctx context.Context, w io.Writer) (int, error) {
	targets, err := e.targets.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list targets: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, t := range targets {
		row := []string{
			t.URL,
			stringOrEmpty(t.DisplayName),
			t.Status,
			stringOrEmpty(t.ErrorMessage),
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return len(targets), nil
}

// WriteFile exports to a file path, creating or truncating it.
func (e *Exporter) WriteFile(ctx context.Context, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	return e.Write(ctx, f)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
