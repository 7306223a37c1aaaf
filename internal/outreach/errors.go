package outreach

import (
	"errors"
	"fmt"
)

// maxRecordedErrorLen bounds the error text written to a target row.
const maxRecordedErrorLen = 500

var (
	// ErrSessionExpired means authenticated content is unreachable.
	// Fatal to the current run; the caller must re-authenticate.
	ErrSessionExpired = errors.New("session expired")

	// ErrRateLimited means the platform reported its own limit. The run
	// stops early; the current target keeps its status for retry.
	ErrRateLimited = errors.New("platform rate limit reached")

	// ErrValidation means malformed input (bad URL, missing template,
	// non-positive cap). Surfaced before any work starts.
	ErrValidation = errors.New("validation failed")
)

// ActionError is a per-target failure while performing an invite or
// message. It is recorded on the target and never aborts the run.
type ActionError struct {
	URL    string
	Reason string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action failed for %s: %s", e.URL, e.Reason)
}

// RecordableMessage returns the error text to store on the target row,
// truncated to a bounded length.
func (e *ActionError) RecordableMessage() string {
	return truncate(e.Reason, maxRecordedErrorLen)
}

// truncate caps s at limit characters, never splitting a rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
