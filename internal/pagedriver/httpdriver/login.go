package httpdriver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Login performs the credential flow against the platform's login page
// and leaves the authenticated cookies in the driver's jar. This is a
// driver-specific capability, not part of the core contract; the session
// manager persists the result as an opaque blob.
func (d *Driver) Login(ctx context.Context, email, password string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.loginURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load login page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to parse login page: %w", err)
	}

	form := doc.Find("form").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return sel.Find(`input[name="session_key"], input[name="email"], #username`).Length() > 0
	}).First()
	if form.Length() == 0 {
		return fmt.Errorf("no login form found at %s", d.loginURL)
	}

	action, _ := form.Attr("action")
	if action == "" {
		action = d.loginURL
	}

	loginBase, err := url.Parse(d.loginURL)
	if err != nil {
		return fmt.Errorf("bad login url: %w", err)
	}
	ref, err := url.Parse(action)
	if err != nil {
		return fmt.Errorf("bad login form action: %w", err)
	}
	endpoint := loginBase.ResolveReference(ref).String()

	values := url.Values{}
	values.Set(fieldName(form, `input[name="session_key"], input[name="email"], #username`, "session_key"), email)
	values.Set(fieldName(form, `input[name="session_password"], input[name="password"], #password`, "session_password"), password)

	// Carry over hidden fields (CSRF and friends).
	form.Find(`input[type="hidden"]`).Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		value, _ := sel.Attr("value")
		if name != "" {
			values.Set(name, value)
		}
	})

	postReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build credential request: %w", err)
	}
	postReq.Header.Set("User-Agent", d.userAgent)
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	postResp, err := d.client.Do(postReq)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer postResp.Body.Close()

	if isLoginURL(postResp.Request.URL) {
		return fmt.Errorf("login rejected, still on login page")
	}
	if postResp.StatusCode >= 400 {
		return fmt.Errorf("login failed with status %d", postResp.StatusCode)
	}

	d.logger.Info("Login completed", "final_url", postResp.Request.URL.String())

	return nil
}

// fieldName returns the name attribute of the first matching input, or
// the fallback when nothing matches.
func fieldName(form *goquery.Selection, selector, fallback string) string {
	if name, ok := form.Find(selector).First().Attr("name"); ok && name != "" {
		return name
	}
	return fallback
}
