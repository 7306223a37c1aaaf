// Package domain provides domain models used across the application.
package domain

import "time"

// Target statuses. A target only ever moves along the outreach
// transitions: pending -> request_sent -> messaged, with connected,
// skipped and error as terminal or retryable side exits.
const (
	StatusPending     = "pending"
	StatusRequestSent = "request_sent"
	StatusConnected   = "connected"
	StatusMessaged    = "messaged"
	StatusSkipped     = "skipped"
	StatusError       = "error"
)

// AllStatuses lists every valid target status, in reporting order.
var AllStatuses = []string{
	StatusPending,
	StatusRequestSent,
	StatusConnected,
	StatusMessaged,
	StatusSkipped,
	StatusError,
}

// Target represents one profile being reached out to.
type Target struct {
	ID           int64      `db:"id" json:"id"`
	URL          string     `db:"url" json:"url"`
	DisplayName  *string    `db:"display_name" json:"display_name,omitempty"`
	Status       string     `db:"status" json:"status"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// ValidStatus reports whether s is a known target status.
func ValidStatus(s string) bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ImportResult holds the outcome of a bulk URL import.
// Imported + Skipped always equals Total.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}
