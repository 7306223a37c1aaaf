package outreach_test

import (
	"testing"

	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/outreach"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
)

func TestDecideConnect(t *testing.T) {
	tests := []struct {
		name       string
		state      pagedriver.RelationshipState
		wantAction outreach.Action
		wantStatus string
	}{
		{"connect available", pagedriver.ConnectAvailable, outreach.ActionInvite, domain.StatusRequestSent},
		{"connect via overflow", pagedriver.ConnectViaOverflow, outreach.ActionInvite, domain.StatusRequestSent},
		{"already pending", pagedriver.AlreadyPending, outreach.ActionNone, domain.StatusRequestSent},
		{"already connected", pagedriver.AlreadyConnected, outreach.ActionNone, domain.StatusConnected},
		{"no connect option", pagedriver.NoConnectOption, outreach.ActionNone, domain.StatusSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outreach.DecideConnect(tt.state)
			if got.Action != tt.wantAction {
				t.Errorf("action = %v, want %v", got.Action, tt.wantAction)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if !got.WriteBack {
				t.Error("connect decisions always write back")
			}
		})
	}
}

func TestDecideMessage(t *testing.T) {
	accepted := outreach.DecideMessage(true)
	if accepted.Action != outreach.ActionMessage {
		t.Errorf("expected message action, got %v", accepted.Action)
	}
	if accepted.Status != domain.StatusMessaged {
		t.Errorf("expected messaged status, got %q", accepted.Status)
	}

	pending := outreach.DecideMessage(false)
	if pending.Action != outreach.ActionNone {
		t.Errorf("expected no action, got %v", pending.Action)
	}
	if pending.WriteBack {
		t.Error("a still-pending connection must not be written back")
	}
}
