package outreach_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/logger"
	"github.com/jonesrussell/linkreach/internal/outreach"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
)

// fakeTargetStore is an in-memory target repository keyed by URL.
type fakeTargetStore struct {
	targets []*domain.Target
}

func newFakeStore(urls ...string) *fakeTargetStore {
	s := &fakeTargetStore{}
	for i, url := range urls {
		s.targets = append(s.targets, &domain.Target{
			ID:     int64(i + 1),
			URL:    url,
			Status: domain.StatusPending,
		})
	}
	return s
}

func (s *fakeTargetStore) Import(_ context.Context, urls []string) (*domain.ImportResult, error) {
	result := &domain.ImportResult{Total: len(urls)}
	for _, url := range urls {
		if _, ok := s.find(url); ok {
			result.Skipped++
			continue
		}
		s.targets = append(s.targets, &domain.Target{URL: url, Status: domain.StatusPending})
		result.Imported++
	}
	return result, nil
}

func (s *fakeTargetStore) find(url string) (*domain.Target, bool) {
	for _, t := range s.targets {
		if t.URL == url {
			return t, true
		}
	}
	return nil, false
}

func (s *fakeTargetStore) GetByStatus(_ context.Context, status string, limit int) ([]*domain.Target, error) {
	var out []*domain.Target
	for _, t := range s.targets {
		if t.Status != status {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeTargetStore) GetByURL(_ context.Context, url string) (*domain.Target, error) {
	t, ok := s.find(url)
	if !ok {
		return nil, errors.New("not found")
	}
	return t, nil
}

func (s *fakeTargetStore) UpdateStatus(_ context.Context, url, status string, displayName, errorMessage *string) error {
	t, ok := s.find(url)
	if !ok {
		return errors.New("not found")
	}
	t.Status = status
	if displayName != nil {
		t.DisplayName = displayName
	}
	t.ErrorMessage = errorMessage
	return nil
}

func (s *fakeTargetStore) ResetErrored(_ context.Context) (int64, error) {
	var n int64
	for _, t := range s.targets {
		if t.Status == domain.StatusError {
			t.Status = domain.StatusPending
			t.ErrorMessage = nil
			n++
		}
	}
	return n, nil
}

func (s *fakeTargetStore) Summary(_ context.Context) (map[string]int, error) {
	m := map[string]int{}
	for _, t := range s.targets {
		m[t.Status]++
		m["total"]++
	}
	return m, nil
}

func (s *fakeTargetStore) ListAll(_ context.Context) ([]*domain.Target, error) {
	return s.targets, nil
}

func (s *fakeTargetStore) statusOf(url string) string {
	t, _ := s.find(url)
	return t.Status
}

// fakeCaps tracks counts in memory against a fixed cap.
type fakeCaps struct {
	cap    int
	counts map[domain.CounterType]int
}

func newFakeCaps(capN int) *fakeCaps {
	return &fakeCaps{cap: capN, counts: map[domain.CounterType]int{}}
}

func (c *fakeCaps) Remaining(_ context.Context, t domain.CounterType) (int, error) {
	r := c.cap - c.counts[t]
	if r < 0 {
		r = 0
	}
	return r, nil
}

func (c *fakeCaps) CapReached(_ context.Context, t domain.CounterType) (bool, error) {
	return c.counts[t] >= c.cap, nil
}

func (c *fakeCaps) Record(_ context.Context, t domain.CounterType) error {
	c.counts[t]++
	return nil
}

// fakePacer returns instantly from every wait.
type fakePacer struct{ everyN int }

func (p *fakePacer) ActionDelay(ctx context.Context) error { return ctx.Err() }
func (p *fakePacer) TargetDelay(ctx context.Context) error { return ctx.Err() }
func (p *fakePacer) LongPause(ctx context.Context) error   { return ctx.Err() }
func (p *fakePacer) ShouldTakeLongPause(n int) bool {
	return p.everyN > 0 && n > 0 && n%p.everyN == 0
}

// fakeSession optionally fails acquisition.
type fakeSession struct {
	acquireErr error
	persisted  bool
}

func (s *fakeSession) Acquire(_ context.Context, _ pagedriver.Driver) error { return s.acquireErr }
func (s *fakeSession) Persist(_ pagedriver.Driver) error {
	s.persisted = true
	return nil
}

// fakeCancels reports a fixed cancellation answer.
type fakeCancels struct{ requested bool }

func (c *fakeCancels) Request(_ context.Context, _ string) error { return nil }
func (c *fakeCancels) Requested(_ context.Context, _ string) (bool, error) {
	return c.requested, nil
}

// driverScript configures the fake driver's answer for one URL.
type driverScript struct {
	outcome       pagedriver.PageOutcome
	state         pagedriver.RelationshipState
	displayName   string
	inviteResult  pagedriver.ActionResult
	messageResult pagedriver.ActionResult
	hasAffordance bool
}

// fakeDriver replays scripted answers per URL and records actions.
type fakeDriver struct {
	scripts  map[string]driverScript
	current  string
	invites  []string
	messages []string
	closed   bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{scripts: map[string]driverScript{}}
}

func (d *fakeDriver) script(url string, s driverScript) { d.scripts[url] = s }

func (d *fakeDriver) Navigate(_ context.Context, url string) (pagedriver.PageOutcome, error) {
	d.current = url
	return d.scripts[url].outcome, nil
}

func (d *fakeDriver) DetectRelationshipState(_ context.Context, _ string) (pagedriver.RelationshipState, error) {
	return d.scripts[d.current].state, nil
}

func (d *fakeDriver) ExtractDisplayName(_ context.Context) (string, error) {
	return d.scripts[d.current].displayName, nil
}

func (d *fakeDriver) PerformInvite(_ context.Context, _ string) (pagedriver.ActionResult, error) {
	d.invites = append(d.invites, d.current)
	return d.scripts[d.current].inviteResult, nil
}

func (d *fakeDriver) HasMessageAffordance(_ context.Context) (bool, error) {
	return d.scripts[d.current].hasAffordance, nil
}

func (d *fakeDriver) PerformMessage(_ context.Context, _ string) (pagedriver.ActionResult, error) {
	d.messages = append(d.messages, d.current)
	return d.scripts[d.current].messageResult, nil
}

func (d *fakeDriver) CaptureSessionBlob() ([]byte, error) { return []byte("{}"), nil }
func (d *fakeDriver) RestoreSessionBlob(_ []byte) error   { return nil }
func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

func newTestRunner(store *fakeTargetStore, capsT outreach.CapTracker, cancels *fakeCancels) *outreach.Runner {
	if cancels == nil {
		cancels = &fakeCancels{}
	}
	return outreach.NewRunner(outreach.RunnerParams{
		Targets: store,
		Cancels: cancels,
		Caps:    capsT,
		Pacer:   &fakePacer{everyN: 10},
		Session: &fakeSession{},
		Note:    outreach.NewTemplate("Hi {first_name}!"),
		Message: outreach.NewTemplate("Thanks {first_name}."),
		Logger:  logger.NewNoOp(),
	})
}

func connectJob() *domain.Job {
	return &domain.Job{ID: "job-1", Mode: domain.ModeConnect, Status: domain.JobStatusPending}
}

func TestRunner_ConnectHappyPath(t *testing.T) {
	store := newFakeStore("u1", "u2", "u3")
	capsT := newFakeCaps(20)
	driver := newFakeDriver()
	for _, url := range []string{"u1", "u2", "u3"} {
		driver.script(url, driverScript{
			state:       pagedriver.ConnectAvailable,
			displayName: "Alice Example",
		})
	}

	runner := newTestRunner(store, capsT, nil)

	summary, err := runner.Run(context.Background(), connectJob(), driver)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Sent != 3 || summary.Processed != 3 || summary.Errors != 0 {
		t.Errorf("summary = %+v, want 3 sent / 3 processed", summary)
	}
	if len(driver.invites) != 3 {
		t.Errorf("expected 3 invites, got %d", len(driver.invites))
	}
	for _, url := range []string{"u1", "u2", "u3"} {
		if got := store.statusOf(url); got != domain.StatusRequestSent {
			t.Errorf("target %s status = %q, want request_sent", url, got)
		}
	}
	if capsT.counts[domain.CounterConnections] != 3 {
		t.Errorf("counter = %d, want 3", capsT.counts[domain.CounterConnections])
	}
	if !driver.closed {
		t.Error("driver session must be closed after the run")
	}
}

func TestRunner_AlreadyConnectedNoInviteNoIncrement(t *testing.T) {
	store := newFakeStore("u1")
	capsT := newFakeCaps(20)
	driver := newFakeDriver()
	driver.script("u1", driverScript{state: pagedriver.AlreadyConnected, displayName: "Bob"})

	runner := newTestRunner(store, capsT, nil)

	summary, err := runner.Run(context.Background(), connectJob(), driver)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if store.statusOf("u1") != domain.StatusConnected {
		t.Errorf("status = %q, want connected", store.statusOf("u1"))
	}
	if len(driver.invites) != 0 {
		t.Error("no invite must be attempted for an already-connected target")
	}
	if capsT.counts[domain.CounterConnections] != 0 {
		t.Error("counter must not be incremented for an already-connected target")
	}
	if summary.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", summary.Skipped)
	}
}

func TestRunner_CapNeverExceeded(t *testing.T) {
	urls := make([]string, 5)
	for i := range urls {
		urls[i] = fmt.Sprintf("u%d", i+1)
	}
	store := newFakeStore(urls...)
	capsT := newFakeCaps(2)
	driver := newFakeDriver()
	for _, url := range urls {
		driver.script(url, driverScript{state: pagedriver.ConnectAvailable})
	}

	runner := newTestRunner(store, capsT, nil)

	summary, err := runner.Run(context.Background(), connectJob(), driver)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(driver.invites) != 2 {
		t.Errorf("expected exactly 2 invites at cap=2, got %d", len(driver.invites))
	}
	if capsT.counts[domain.CounterConnections] != 2 {
		t.Errorf("counter = %d, must never exceed cap", capsT.counts[domain.CounterConnections])
	}
	if summary.Sent != 2 {
		t.Errorf("sent = %d, want 2", summary.Sent)
	}
	if store.statusOf("u3") != domain.StatusPending {
		t.Error("targets beyond the cap must stay pending")
	}
}

func TestRunner_RateLimitAbortsRunKeepingEarlierProgress(t *testing.T) {
	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("u%d", i+1)
	}
	store := newFakeStore(urls...)
	capsT := newFakeCaps(50)
	driver := newFakeDriver()
	for i, url := range urls {
		script := driverScript{state: pagedriver.ConnectAvailable}
		if i == 6 {
			script.inviteResult = pagedriver.ActionResult{Status: pagedriver.ActionRateLimited}
		}
		driver.script(url, script)
	}

	runner := newTestRunner(store, capsT, nil)

	summary, err := runner.Run(context.Background(), connectJob(), driver)
	if err != nil {
		t.Fatalf("rate limit must not surface as an error, got %v", err)
	}

	if !summary.RateLimited {
		t.Error("summary must flag the rate limit")
	}
	for i := 0; i < 6; i++ {
		if got := store.statusOf(urls[i]); got != domain.StatusRequestSent {
			t.Errorf("target #%d status = %q, earlier progress must be kept", i+1, got)
		}
	}
	if got := store.statusOf(urls[6]); got != domain.StatusPending {
		t.Errorf("rate-limited target status = %q, must stay pending for retry", got)
	}
	for i := 7; i < 20; i++ {
		if got := store.statusOf(urls[i]); got != domain.StatusPending {
			t.Errorf("target #%d status = %q, must be untouched", i+1, got)
		}
	}
	if capsT.counts[domain.CounterConnections] != 6 {
		t.Errorf("counter = %d, want 6", capsT.counts[domain.CounterConnections])
	}
	if !driver.closed {
		t.Error("driver must be closed after an aborted run")
	}
}

func TestRunner_SessionExpiredIsFatal(t *testing.T) {
	store := newFakeStore("u1", "u2")
	capsT := newFakeCaps(20)
	driver := newFakeDriver()
	driver.script("u1", driverScript{outcome: pagedriver.OutcomeSessionExpired})
	driver.script("u2", driverScript{state: pagedriver.ConnectAvailable})

	runner := newTestRunner(store, capsT, nil)

	job := connectJob()
	_, err := runner.Run(context.Background(), job, driver)
	if !errors.Is(err, outreach.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	if store.statusOf("u2") != domain.StatusPending {
		t.Error("later targets must be untouched after a fatal session error")
	}
	if !driver.closed {
		t.Error("driver must be closed after a fatal error")
	}
}

func TestRunner_PerTargetErrorDoesNotAbort(t *testing.T) {
	store := newFakeStore("u1", "u2", "u3")
	capsT := newFakeCaps(20)
	driver := newFakeDriver()
	driver.script("u1", driverScript{state: pagedriver.ConnectAvailable})
	driver.script("u2", driverScript{
		state:        pagedriver.ConnectAvailable,
		inviteResult: pagedriver.ActionResult{Status: pagedriver.ActionFailed, Reason: "dialog vanished"},
	})
	driver.script("u3", driverScript{state: pagedriver.ConnectAvailable})

	runner := newTestRunner(store, capsT, nil)

	summary, err := runner.Run(context.Background(), connectJob(), driver)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Errors != 1 || summary.Sent != 2 {
		t.Errorf("summary = %+v, want 1 error / 2 sent", summary)
	}
	if store.statusOf("u2") != domain.StatusError {
		t.Errorf("failed target status = %q, want error", store.statusOf("u2"))
	}
	if store.statusOf("u3") != domain.StatusRequestSent {
		t.Error("the run must continue past a per-target failure")
	}
}

func TestRunner_DryRunNeverMutates(t *testing.T) {
	store := newFakeStore("u1", "u2")
	capsT := newFakeCaps(20)
	driver := newFakeDriver()
	driver.script("u1", driverScript{state: pagedriver.ConnectAvailable})
	driver.script("u2", driverScript{state: pagedriver.AlreadyConnected})

	runner := newTestRunner(store, capsT, nil)

	job := connectJob()
	job.DryRun = true

	summary, err := runner.Run(context.Background(), job, driver)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(driver.invites) != 0 {
		t.Error("dry run must never invoke PerformInvite")
	}
	if store.statusOf("u1") != domain.StatusPending || store.statusOf("u2") != domain.StatusPending {
		t.Error("dry run must not mutate the target store")
	}
	if capsT.counts[domain.CounterConnections] != 0 {
		t.Error("dry run must not increment counters")
	}
	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2", summary.Processed)
	}
}

func TestRunner_CancellationStopsBetweenTargets(t *testing.T) {
	store := newFakeStore("u1", "u2")
	capsT := newFakeCaps(20)
	driver := newFakeDriver()
	driver.script("u1", driverScript{state: pagedriver.ConnectAvailable})
	driver.script("u2", driverScript{state: pagedriver.ConnectAvailable})

	runner := newTestRunner(store, capsT, &fakeCancels{requested: true})

	job := connectJob()
	summary, err := runner.Run(context.Background(), job, driver)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Processed != 0 {
		t.Errorf("processed = %d, cancellation must stop before the first target", summary.Processed)
	}
	if job.Status != domain.JobStatusCancelled {
		t.Errorf("job status = %q, want cancelled", job.Status)
	}
	if !driver.closed {
		t.Error("a cancelled run must still release its session")
	}
}

func TestRunner_MessageWorkflow(t *testing.T) {
	store := newFakeStore("u1", "u2")
	store.targets[0].Status = domain.StatusRequestSent
	store.targets[1].Status = domain.StatusRequestSent

	capsT := newFakeCaps(50)
	driver := newFakeDriver()
	driver.script("u1", driverScript{hasAffordance: true, displayName: "Alice Example"})
	driver.script("u2", driverScript{hasAffordance: false})

	runner := newTestRunner(store, capsT, nil)

	job := &domain.Job{ID: "job-2", Mode: domain.ModeMessage, Status: domain.JobStatusPending}
	summary, err := runner.Run(context.Background(), job, driver)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if store.statusOf("u1") != domain.StatusMessaged {
		t.Errorf("accepted target status = %q, want messaged", store.statusOf("u1"))
	}
	if store.statusOf("u2") != domain.StatusRequestSent {
		t.Error("a still-pending target must keep its request_sent status")
	}
	if summary.StillPending != 1 {
		t.Errorf("still_pending = %d, want 1", summary.StillPending)
	}
	if capsT.counts[domain.CounterMessages] != 1 {
		t.Errorf("message counter = %d, want 1", capsT.counts[domain.CounterMessages])
	}
	if len(driver.messages) != 1 {
		t.Errorf("expected 1 message sent, got %d", len(driver.messages))
	}
}

func TestRunner_InvalidModeIsValidationError(t *testing.T) {
	store := newFakeStore()
	runner := newTestRunner(store, newFakeCaps(20), nil)
	driver := newFakeDriver()

	job := &domain.Job{ID: "job-3", Mode: "broadcast"}
	_, err := runner.Run(context.Background(), job, driver)
	if !errors.Is(err, outreach.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !driver.closed {
		t.Error("driver must be closed even on validation failure")
	}
}
