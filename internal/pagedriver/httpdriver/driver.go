// Package httpdriver implements the page driver contract over plain HTTP
// with an authenticated cookie session. Page observation is done with
// goquery; actions post to the endpoints discovered on the profile page.
package httpdriver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/logger"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
)

const (
	requestTimeout = 30 * time.Second
	maxNavRetries  = 3
	maxBodyBytes   = 4 << 20
)

// Driver drives the platform over HTTP. Not safe for concurrent use; each
// job owns exactly one driver.
type Driver struct {
	client    *http.Client
	jar       *cookiejar.Jar
	baseURL   string
	loginURL  string
	feedURL   string
	userAgent string
	logger    logger.Interface

	// page state from the last successful Navigate.
	doc        *goquery.Document
	currentURL string
}

// New creates an HTTP page driver from outreach config.
func New(cfg *config.OutreachConfig, log logger.Interface) (*Driver, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Driver{
		client: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		},
		jar:       jar,
		baseURL:   cfg.BaseURL,
		loginURL:  cfg.LoginURL,
		feedURL:   cfg.FeedURL,
		userAgent: cfg.UserAgent,
		logger:    log,
	}, nil
}

var _ pagedriver.Driver = (*Driver)(nil)

// Navigate loads the given profile URL, retrying transient failures with
// exponential backoff.
func (d *Driver) Navigate(ctx context.Context, pageURL string) (pagedriver.PageOutcome, error) {
	var outcome pagedriver.PageOutcome

	operation := func() error {
		var err error
		outcome, err = d.fetch(ctx, pageURL)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxNavRetries),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return pagedriver.OutcomeNotFound, fmt.Errorf("failed to load %s: %w", pageURL, err)
	}

	return outcome, nil
}

func (d *Driver) fetch(ctx context.Context, pageURL string) (pagedriver.PageOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return pagedriver.OutcomeNotFound, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.client.Do(req)
	if err != nil {
		return pagedriver.OutcomeNotFound, err
	}
	defer resp.Body.Close()

	// The platform redirects unauthenticated requests to its login wall.
	if isLoginURL(resp.Request.URL) {
		return pagedriver.OutcomeSessionExpired, nil
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return pagedriver.OutcomeNotFound, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pagedriver.OutcomeSessionExpired, nil
	case resp.StatusCode >= 500:
		return pagedriver.OutcomeNotFound, fmt.Errorf("server error %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return pagedriver.OutcomeNotFound, backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return pagedriver.OutcomeNotFound, backoff.Permanent(fmt.Errorf("failed to parse page: %w", err))
	}

	d.doc = doc
	d.currentURL = resp.Request.URL.String()

	return pagedriver.OutcomeOK, nil
}

func isLoginURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	path := u.Path
	return strings.Contains(path, "/login") ||
		strings.Contains(path, "/authwall") ||
		strings.Contains(path, "/uas/login")
}

// DetectRelationshipState classifies the profile currently in view by
// running the ordered detection strategies; first match wins.
func (d *Driver) DetectRelationshipState(_ context.Context, displayName string) (pagedriver.RelationshipState, error) {
	if d.doc == nil {
		return pagedriver.NoConnectOption, fmt.Errorf("no page loaded")
	}

	for _, strategy := range detectionStrategies {
		if state, ok := strategy.detect(d.doc, displayName); ok {
			d.logger.Debug("Relationship state detected",
				"strategy", strategy.name, "state", state.String())
			return state, nil
		}
	}

	return pagedriver.NoConnectOption, nil
}

// ExtractDisplayName returns the profile's display name, or "" when it
// cannot be determined.
func (d *Driver) ExtractDisplayName(_ context.Context) (string, error) {
	if d.doc == nil {
		return "", fmt.Errorf("no page loaded")
	}

	for _, sel := range []string{
		"h1.profile-name",
		"main h1",
		"h1",
	} {
		name := strings.TrimSpace(d.doc.Find(sel).First().Text())
		if name != "" {
			return name, nil
		}
	}

	return "", nil
}

// PerformInvite sends a connection invitation through the invite endpoint
// discovered on the current page.
func (d *Driver) PerformInvite(ctx context.Context, note string) (pagedriver.ActionResult, error) {
	endpoint, token, err := d.actionEndpoint("invite")
	if err != nil {
		return pagedriver.ActionResult{Status: pagedriver.ActionFailed, Reason: err.Error()}, nil
	}

	form := url.Values{}
	form.Set("csrf_token", token)
	if note != "" {
		form.Set("note", note)
	}

	return d.postAction(ctx, endpoint, form)
}

// HasMessageAffordance reports whether the current profile exposes a
// direct-message control, which implies the connection was accepted.
func (d *Driver) HasMessageAffordance(_ context.Context) (bool, error) {
	if d.doc == nil {
		return false, fmt.Errorf("no page loaded")
	}

	if d.doc.Find(`form[data-action="message"]`).Length() > 0 {
		return true, nil
	}

	found := false
	d.doc.Find("a, button").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(sel.Text()), "Message") {
			found = true
			return false
		}
		return true
	})

	return found, nil
}

// PerformMessage sends a direct message through the message endpoint
// discovered on the current page.
func (d *Driver) PerformMessage(ctx context.Context, text string) (pagedriver.ActionResult, error) {
	endpoint, token, err := d.actionEndpoint("message")
	if err != nil {
		return pagedriver.ActionResult{Status: pagedriver.ActionFailed, Reason: err.Error()}, nil
	}

	form := url.Values{}
	form.Set("csrf_token", token)
	form.Set("body", text)

	return d.postAction(ctx, endpoint, form)
}

// actionEndpoint resolves the form action URL and CSRF token for the named
// action on the current page.
func (d *Driver) actionEndpoint(action string) (string, string, error) {
	if d.doc == nil {
		return "", "", fmt.Errorf("no page loaded")
	}

	form := d.doc.Find(fmt.Sprintf(`form[data-action=%q]`, action)).First()
	if form.Length() == 0 {
		return "", "", fmt.Errorf("no %s form on page", action)
	}

	target, _ := form.Attr("action")
	if target == "" {
		return "", "", fmt.Errorf("%s form has no action", action)
	}

	resolved, err := d.resolve(target)
	if err != nil {
		return "", "", err
	}

	token, _ := form.Find(`input[name="csrf_token"]`).Attr("value")

	return resolved, token, nil
}

func (d *Driver) resolve(target string) (string, error) {
	base, err := url.Parse(d.currentURL)
	if err != nil {
		return "", fmt.Errorf("bad current url: %w", err)
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("bad action url: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// postAction submits a form and classifies the platform's answer into the
// tagged action result.
func (d *Driver) postAction(ctx context.Context, endpoint string, form url.Values) (pagedriver.ActionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return pagedriver.ActionResult{}, fmt.Errorf("failed to build action request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return pagedriver.ActionResult{}, fmt.Errorf("action request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode == http.StatusTooManyRequests || containsLimitNotice(body) {
		return pagedriver.ActionResult{Status: pagedriver.ActionRateLimited}, nil
	}

	if resp.StatusCode >= 400 {
		return pagedriver.ActionResult{
			Status: pagedriver.ActionFailed,
			Reason: fmt.Sprintf("action returned status %d", resp.StatusCode),
		}, nil
	}

	return pagedriver.ActionResult{Status: pagedriver.ActionOK}, nil
}

// limitNotices are the platform's own phrasings of its invitation limit.
var limitNotices = [][]byte{
	[]byte("reached the weekly invitation limit"),
	[]byte("invitation limit reached"),
	[]byte("too many invitations"),
}

func containsLimitNotice(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, notice := range limitNotices {
		if bytes.Contains(lower, notice) {
			return true
		}
	}
	return false
}

// CaptureSessionBlob serializes the driver's cookies for persistence.
func (d *Driver) CaptureSessionBlob() ([]byte, error) {
	base, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad base url: %w", err)
	}

	return encodeCookies(d.jar.Cookies(base))
}

// RestoreSessionBlob loads previously captured cookies into the jar.
func (d *Driver) RestoreSessionBlob(blob []byte) error {
	base, err := url.Parse(d.baseURL)
	if err != nil {
		return fmt.Errorf("bad base url: %w", err)
	}

	cookies, err := decodeCookies(blob)
	if err != nil {
		return err
	}

	d.jar.SetCookies(base, cookies)

	return nil
}

// Close releases the driver's connections. The cookie jar is left intact
// so a final CaptureSessionBlob can still observe it.
func (d *Driver) Close() error {
	d.client.CloseIdleConnections()
	d.doc = nil
	return nil
}
