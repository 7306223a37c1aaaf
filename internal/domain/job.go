package domain

import "time"

// Job statuses.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Job modes.
const (
	ModeConnect = "connect"
	ModeMessage = "message"
	ModeBoth    = "both"
)

// ValidMode reports whether m is a known workflow mode.
func ValidMode(m string) bool {
	return m == ModeConnect || m == ModeMessage || m == ModeBoth
}

// Job represents one outreach run over a batch of targets. A job is
// owned by exactly one runner at a time; only that runner mutates its row.
type Job struct {
	ID           string     `db:"id" json:"id"`
	Mode         string     `db:"mode" json:"mode"`
	Status       string     `db:"status" json:"status"`
	LiveStatus   string     `db:"live_status" json:"live_status"`
	DryRun       bool       `db:"dry_run" json:"dry_run"`
	TotalTargets int        `db:"total_targets" json:"total_targets"`
	Processed    int        `db:"processed" json:"processed"`
	Sent         int        `db:"sent" json:"sent"`
	Skipped      int        `db:"skipped" json:"skipped"`
	Errors       int        `db:"errors" json:"errors"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	StartedAt    *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
}

// Terminal reports whether the job has finished (successfully or not).
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}
