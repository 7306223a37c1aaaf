package httpdriver

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/linkreach/internal/pagedriver"
)

// detectionStrategy is one pure predicate over page content. Strategies
// run in priority order; the first match wins.
type detectionStrategy struct {
	name   string
	detect func(doc *goquery.Document, displayName string) (pagedriver.RelationshipState, bool)
}

var detectionStrategies = []detectionStrategy{
	{name: "pending-badge", detect: detectPending},
	{name: "connected-badge", detect: detectConnected},
	{name: "primary-connect", detect: detectPrimaryConnect},
	{name: "overflow-connect", detect: detectOverflowConnect},
}

// detectPending looks for the withdrawable-invitation control shown once
// an invitation is in flight.
func detectPending(doc *goquery.Document, _ string) (pagedriver.RelationshipState, bool) {
	if hasButtonText(doc, "Pending") || doc.Find(`[data-state="invitation-pending"]`).Length() > 0 {
		return pagedriver.AlreadyPending, true
	}
	return 0, false
}

// detectConnected looks for the degree badge or the remove-connection
// control present only on connected profiles.
func detectConnected(doc *goquery.Document, displayName string) (pagedriver.RelationshipState, bool) {
	badge := strings.TrimSpace(doc.Find(".degree-badge, .distance-badge").First().Text())
	if strings.Contains(badge, "1st") {
		return pagedriver.AlreadyConnected, true
	}
	if displayName != "" && hasButtonText(doc, "Remove Connection") {
		return pagedriver.AlreadyConnected, true
	}
	if doc.Find(`[data-state="connected"]`).Length() > 0 {
		return pagedriver.AlreadyConnected, true
	}
	return 0, false
}

// detectPrimaryConnect looks for a top-level connect control.
func detectPrimaryConnect(doc *goquery.Document, _ string) (pagedriver.RelationshipState, bool) {
	if doc.Find(`form[data-action="invite"]`).Length() > 0 {
		return pagedriver.ConnectAvailable, true
	}
	if hasButtonText(doc, "Connect") {
		return pagedriver.ConnectAvailable, true
	}
	return 0, false
}

// detectOverflowConnect looks for a connect entry buried in the overflow
// ("More") menu.
func detectOverflowConnect(doc *goquery.Document, _ string) (pagedriver.RelationshipState, bool) {
	found := false
	doc.Find(`[data-menu="overflow"] li, .overflow-menu li, [role="menu"] [role="menuitem"]`).
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if strings.EqualFold(strings.TrimSpace(sel.Text()), "Connect") {
				found = true
				return false
			}
			return true
		})
	if found {
		return pagedriver.ConnectViaOverflow, true
	}
	return 0, false
}

// hasButtonText reports whether any button-like element carries exactly
// the given visible text.
func hasButtonText(doc *goquery.Document, text string) bool {
	found := false
	doc.Find(`button, a[role="button"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(sel.Text()), text) {
			found = true
			return false
		}
		label, _ := sel.Attr("aria-label")
		if strings.EqualFold(strings.TrimSpace(label), text) {
			found = true
			return false
		}
		return true
	})
	return found
}
