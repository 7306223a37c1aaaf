// Package pagedriver defines the capability contract for navigating,
// observing and acting on the target platform's pages. The outreach core
// consumes this contract only; drivers live in subpackages.
package pagedriver

import "context"

// PageOutcome classifies the result of navigating to a profile page.
type PageOutcome int

const (
	// OutcomeOK means the page loaded and is observable.
	OutcomeOK PageOutcome = iota
	// OutcomeNotFound means the profile does not exist or is unreachable.
	OutcomeNotFound
	// OutcomeSessionExpired means authenticated content is no longer
	// reachable; the run cannot continue with this session.
	OutcomeSessionExpired
)

// RelationshipState classifies how the authenticated account relates to
// the profile currently in view.
type RelationshipState int

const (
	// ConnectAvailable means a direct connect control is present.
	ConnectAvailable RelationshipState = iota
	// ConnectViaOverflow means connect is reachable through an overflow menu.
	ConnectViaOverflow
	// AlreadyPending means an invitation is already in flight.
	AlreadyPending
	// AlreadyConnected means the profiles are already connected.
	AlreadyConnected
	// NoConnectOption means no way to connect was found.
	NoConnectOption
)

// String returns a human-readable name for the relationship state.
func (s RelationshipState) String() string {
	switch s {
	case ConnectAvailable:
		return "connect_available"
	case ConnectViaOverflow:
		return "connect_via_overflow"
	case AlreadyPending:
		return "already_pending"
	case AlreadyConnected:
		return "already_connected"
	case NoConnectOption:
		return "no_connect_option"
	default:
		return "unknown"
	}
}

// ActionStatus tags the result of an invite or message action. Platform
// rate limiting is a tagged result, not an error, so the orchestrator's
// run-abort logic is an explicit branch.
type ActionStatus int

const (
	// ActionOK means the action completed.
	ActionOK ActionStatus = iota
	// ActionRateLimited means the platform reported its own limit.
	ActionRateLimited
	// ActionFailed means the action failed for any other reason.
	ActionFailed
)

// ActionResult is the tagged outcome of a page action.
type ActionResult struct {
	Status ActionStatus
	Reason string
}

// Driver is the page automation capability consumed by the outreach core.
// Implementations own one exclusive session each; they are not safe for
// concurrent use.
type Driver interface {
	// Navigate loads the given profile URL.
	Navigate(ctx context.Context, url string) (PageOutcome, error)

	// DetectRelationshipState classifies the profile currently in view.
	// The display name, when known, helps disambiguate page content.
	DetectRelationshipState(ctx context.Context, displayName string) (RelationshipState, error)

	// ExtractDisplayName returns the profile's display name, or "" when
	// it cannot be determined.
	ExtractDisplayName(ctx context.Context) (string, error)

	// PerformInvite sends a connection invitation, optionally with a note
	// (empty string means no note).
	PerformInvite(ctx context.Context, note string) (ActionResult, error)

	// HasMessageAffordance reports whether the profile in view can be
	// messaged directly, which implies the connection was accepted.
	HasMessageAffordance(ctx context.Context) (bool, error)

	// PerformMessage sends a direct message to the profile in view.
	PerformMessage(ctx context.Context, text string) (ActionResult, error)

	// CaptureSessionBlob serializes the driver's session state.
	CaptureSessionBlob() ([]byte, error)

	// RestoreSessionBlob loads previously captured session state.
	RestoreSessionBlob(blob []byte) error

	// Close releases the driver's session and resources.
	Close() error
}
