package httpdriver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/logger"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
	"github.com/jonesrussell/linkreach/internal/pagedriver/httpdriver"
)

func newTestDriver(t *testing.T, serverURL string) *httpdriver.Driver {
	t.Helper()

	cfg := &config.OutreachConfig{
		BaseURL:   serverURL,
		LoginURL:  serverURL + "/login",
		FeedURL:   serverURL + "/feed",
		UserAgent: "test-agent",
	}

	driver, err := httpdriver.New(cfg, logger.NewNoOp())
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}
	return driver
}

func TestDriver_NavigateOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<main><h1>Alice Example</h1><button>Connect</button></main>`))
	}))
	defer srv.Close()

	driver := newTestDriver(t, srv.URL)
	defer driver.Close()

	outcome, err := driver.Navigate(context.Background(), srv.URL+"/in/alice")
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if outcome != pagedriver.OutcomeOK {
		t.Fatalf("outcome = %v, want OK", outcome)
	}

	name, err := driver.ExtractDisplayName(context.Background())
	if err != nil {
		t.Fatalf("ExtractDisplayName() error = %v", err)
	}
	if name != "Alice Example" {
		t.Errorf("display name = %q", name)
	}

	state, err := driver.DetectRelationshipState(context.Background(), name)
	if err != nil {
		t.Fatalf("DetectRelationshipState() error = %v", err)
	}
	if state != pagedriver.ConnectAvailable {
		t.Errorf("state = %s, want connect_available", state.String())
	}
}

func TestDriver_NavigateNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	driver := newTestDriver(t, srv.URL)
	defer driver.Close()

	outcome, err := driver.Navigate(context.Background(), srv.URL+"/in/ghost")
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if outcome != pagedriver.OutcomeNotFound {
		t.Errorf("outcome = %v, want NotFound", outcome)
	}
}

func TestDriver_NavigateLoginRedirectMeansSessionExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/in/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<form id="login"></form>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	driver := newTestDriver(t, srv.URL)
	defer driver.Close()

	outcome, err := driver.Navigate(context.Background(), srv.URL+"/in/alice")
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if outcome != pagedriver.OutcomeSessionExpired {
		t.Errorf("outcome = %v, want SessionExpired", outcome)
	}
}

func TestDriver_PerformInvite(t *testing.T) {
	var gotNote string

	mux := http.NewServeMux()
	mux.HandleFunc("/in/alice", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<form data-action="invite" action="/invite">
			<input name="csrf_token" value="tok123">
		</form>`))
	})
	mux.HandleFunc("/invite", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotNote = r.PostFormValue("note")
		if r.PostFormValue("csrf_token") != "tok123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	driver := newTestDriver(t, srv.URL)
	defer driver.Close()

	if _, err := driver.Navigate(context.Background(), srv.URL+"/in/alice"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	result, err := driver.PerformInvite(context.Background(), "Hi Alice!")
	if err != nil {
		t.Fatalf("PerformInvite() error = %v", err)
	}
	if result.Status != pagedriver.ActionOK {
		t.Fatalf("result = %+v, want OK", result)
	}
	if gotNote != "Hi Alice!" {
		t.Errorf("note = %q", gotNote)
	}
}

func TestDriver_PerformInviteRateLimited(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/in/alice", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<form data-action="invite" action="/invite"></form>`))
	})
	mux.HandleFunc("/invite", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`You've reached the weekly invitation limit`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	driver := newTestDriver(t, srv.URL)
	defer driver.Close()

	if _, err := driver.Navigate(context.Background(), srv.URL+"/in/alice"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	result, err := driver.PerformInvite(context.Background(), "")
	if err != nil {
		t.Fatalf("PerformInvite() error = %v", err)
	}
	if result.Status != pagedriver.ActionRateLimited {
		t.Errorf("result = %+v, want RateLimited", result)
	}
}

func TestDriver_SessionBlobRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "abc123", Path: "/"})
		_, _ = w.Write([]byte(`<main></main>`))
	}))
	defer srv.Close()

	driver := newTestDriver(t, srv.URL)
	if _, err := driver.Navigate(context.Background(), srv.URL+"/in/alice"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	blob, err := driver.CaptureSessionBlob()
	if err != nil {
		t.Fatalf("CaptureSessionBlob() error = %v", err)
	}
	driver.Close()

	restored := newTestDriver(t, srv.URL)
	defer restored.Close()

	if err := restored.RestoreSessionBlob(blob); err != nil {
		t.Fatalf("RestoreSessionBlob() error = %v", err)
	}

	again, err := restored.CaptureSessionBlob()
	if err != nil {
		t.Fatalf("CaptureSessionBlob() after restore error = %v", err)
	}
	if string(again) == "[]" || string(again) == "null" {
		t.Error("restored jar lost the session cookie")
	}
}
