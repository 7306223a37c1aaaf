package outreach

import (
	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
)

// Action is what the orchestrator should attempt for a target.
type Action int

const (
	// ActionNone means record the resulting status without touching the page.
	ActionNone Action = iota
	// ActionInvite means send a connection invitation.
	ActionInvite
	// ActionMessage means send a direct message.
	ActionMessage
)

// Decision is the state machine's verdict for one target: the action to
// attempt and the status to record when it succeeds (or when no action is
// needed). WriteBack is false when the target's row must not change.
type Decision struct {
	Action    Action
	Status    string
	WriteBack bool
}

// DecideConnect maps a detected relationship state to the connect-workflow
// decision for a pending target.
func DecideConnect(state pagedriver.RelationshipState) Decision {
	switch state {
	case pagedriver.ConnectAvailable, pagedriver.ConnectViaOverflow:
		return Decision{Action: ActionInvite, Status: domain.StatusRequestSent, WriteBack: true}
	case pagedriver.AlreadyPending:
		// Invitation already in flight; treat as sent.
		return Decision{Action: ActionNone, Status: domain.StatusRequestSent, WriteBack: true}
	case pagedriver.AlreadyConnected:
		return Decision{Action: ActionNone, Status: domain.StatusConnected, WriteBack: true}
	case pagedriver.NoConnectOption:
		return Decision{Action: ActionNone, Status: domain.StatusSkipped, WriteBack: true}
	default:
		return Decision{Action: ActionNone, Status: domain.StatusSkipped, WriteBack: true}
	}
}

// DecideMessage maps the presence of a message affordance to the
// message-workflow decision for a request_sent target. When the affordance
// is absent the invitation has not been accepted yet, so the target stays
// request_sent and nothing is written back.
func DecideMessage(hasAffordance bool) Decision {
	if hasAffordance {
		return Decision{Action: ActionMessage, Status: domain.StatusMessaged, WriteBack: true}
	}
	return Decision{Action: ActionNone, Status: domain.StatusRequestSent, WriteBack: false}
}
