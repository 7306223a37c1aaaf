// Package outreach implements the outreach job engine: the per-target
// state machine, the orchestrator that drives a batch of targets through
// it, and the templates it personalizes along the way.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/linkreach/internal/database"
	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/logger"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
)

// CapTracker enforces the daily action ceilings.
type CapTracker interface {
	Remaining(ctx context.Context, counterType domain.CounterType) (int, error)
	CapReached(ctx context.Context, counterType domain.CounterType) (bool, error)
	Record(ctx context.Context, counterType domain.CounterType) error
}

// Pacer spaces out actions and targets.
type Pacer interface {
	ActionDelay(ctx context.Context) error
	TargetDelay(ctx context.Context) error
	ShouldTakeLongPause(processed int) bool
	LongPause(ctx context.Context) error
}

// SessionManager establishes and persists the driver's authenticated session.
type SessionManager interface {
	Acquire(ctx context.Context, driver pagedriver.Driver) error
	Persist(driver pagedriver.Driver) error
}

// Summary is the aggregate outcome of a run. It is always produced, even
// on early termination.
type Summary struct {
	Processed    int  `json:"processed"`
	Sent         int  `json:"sent"`
	Skipped      int  `json:"skipped"`
	Errors       int  `json:"errors"`
	StillPending int  `json:"still_pending"`
	RateLimited  bool `json:"rate_limited"`
}

// Runner drives a batch of targets through the outreach state machine.
// One runner owns one job and one driver session; it is used sequentially.
type Runner struct {
	targets database.TargetRepositoryInterface
	jobs    database.JobRepositoryInterface
	cancels database.CancelRepositoryInterface
	caps    CapTracker
	pacer   Pacer
	session SessionManager
	note    *Template
	message *Template
	bus     *Bus
	logger  logger.Interface
}

// RunnerParams bundles the runner's collaborators.
type RunnerParams struct {
	Targets database.TargetRepositoryInterface
	Jobs    database.JobRepositoryInterface
	Cancels database.CancelRepositoryInterface
	Caps    CapTracker
	Pacer   Pacer
	Session SessionManager
	Note    *Template
	Message *Template
	Bus     *Bus
	Logger  logger.Interface
}

// NewRunner creates a job runner.
func NewRunner(p RunnerParams) *Runner {
	bus := p.Bus
	if bus == nil {
		bus = NewBus()
	}
	return &Runner{
		targets: p.Targets,
		jobs:    p.Jobs,
		cancels: p.Cancels,
		caps:    p.Caps,
		pacer:   p.Pacer,
		session: p.Session,
		note:    p.Note,
		message: p.Message,
		bus:     bus,
		logger:  p.Logger,
	}
}

// Run executes the job against the given driver. The driver session is
// closed on every exit path. The returned summary is valid even when err
// is non-nil.
func (r *Runner) Run(ctx context.Context, job *domain.Job, driver pagedriver.Driver) (*Summary, error) {
	summary := &Summary{}

	defer func() {
		if closeErr := driver.Close(); closeErr != nil {
			r.logger.Warn("Failed to close driver session", "error", closeErr)
		}
	}()

	if !domain.ValidMode(job.Mode) {
		err := fmt.Errorf("%w: unknown mode %q", ErrValidation, job.Mode)
		r.failJob(ctx, job, err)
		return summary, err
	}

	if err := r.session.Acquire(ctx, driver); err != nil {
		r.logger.Error("Failed to acquire session", "error", err)
		r.failJob(ctx, job, err)
		return summary, err
	}

	r.startJob(ctx, job)

	var runErr error
	switch job.Mode {
	case domain.ModeConnect:
		runErr = r.runConnect(ctx, job, driver, summary)
	case domain.ModeMessage:
		runErr = r.runMessage(ctx, job, driver, summary)
	case domain.ModeBoth:
		runErr = r.runConnect(ctx, job, driver, summary)
		if runErr == nil && !summary.RateLimited {
			runErr = r.runMessage(ctx, job, driver, summary)
		}
	}

	if !job.DryRun {
		if err := r.session.Persist(driver); err != nil {
			r.logger.Warn("Failed to persist session", "error", err)
		}
	}

	r.finishJob(ctx, job, summary, runErr)

	return summary, runErr
}

// runConnect processes pending targets through the connect workflow.
func (r *Runner) runConnect(ctx context.Context, job *domain.Job, driver pagedriver.Driver, summary *Summary) error {
	remaining, err := r.caps.Remaining(ctx, domain.CounterConnections)
	if err != nil {
		return err
	}
	if remaining == 0 {
		r.logger.Info("Daily connection cap already reached, nothing to do")
		return nil
	}

	targets, err := r.targets.GetByStatus(ctx, domain.StatusPending, remaining)
	if err != nil {
		return err
	}

	return r.processTargets(ctx, job, driver, summary, targets, domain.CounterConnections, r.connectTarget)
}

// runMessage processes request_sent targets through the message workflow.
func (r *Runner) runMessage(ctx context.Context, job *domain.Job, driver pagedriver.Driver, summary *Summary) error {
	remaining, err := r.caps.Remaining(ctx, domain.CounterMessages)
	if err != nil {
		return err
	}
	if remaining == 0 {
		r.logger.Info("Daily message cap already reached, nothing to do")
		return nil
	}

	targets, err := r.targets.GetByStatus(ctx, domain.StatusRequestSent, remaining)
	if err != nil {
		return err
	}

	return r.processTargets(ctx, job, driver, summary, targets, domain.CounterMessages, r.messageTarget)
}

// targetFunc handles one target and returns whether the run must abort
// because of a platform rate limit.
type targetFunc func(ctx context.Context, job *domain.Job, driver pagedriver.Driver, target *domain.Target, summary *Summary) (rateLimited bool, err error)

// processTargets runs the per-target loop shared by both workflows.
func (r *Runner) processTargets(
	ctx context.Context,
	job *domain.Job,
	driver pagedriver.Driver,
	summary *Summary,
	targets []*domain.Target,
	counterType domain.CounterType,
	handle targetFunc,
) error {
	total := len(targets)
	job.TotalTargets += total

	for i, target := range targets {
		cancelled, err := r.cancelled(ctx, job.ID)
		if err != nil {
			return err
		}
		if cancelled {
			r.logger.Info("Cancellation observed, stopping run", "job_id", job.ID)
			job.Status = domain.JobStatusCancelled
			return nil
		}

		reached, err := r.caps.CapReached(ctx, counterType)
		if err != nil {
			return err
		}
		if reached {
			r.logger.Info("Daily cap reached, stopping run", "counter", string(counterType))
			return nil
		}

		r.setLive(ctx, job, fmt.Sprintf("[%d/%d] %s", i+1, total, target.URL))

		rateLimited, err := handle(ctx, job, driver, target, summary)
		summary.Processed++
		job.Processed++
		r.updateJob(ctx, job)

		if err != nil {
			return err
		}
		if rateLimited {
			summary.RateLimited = true
			r.logger.Warn("Platform rate limit reached, aborting run",
				"target_url", target.URL)
			return nil
		}

		if i < total-1 {
			if r.pacer.ShouldTakeLongPause(summary.Processed) {
				if err := r.pacer.LongPause(ctx); err != nil {
					return err
				}
			} else if err := r.pacer.TargetDelay(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

// connectTarget runs the connect workflow for one pending target.
func (r *Runner) connectTarget(ctx context.Context, job *domain.Job, driver pagedriver.Driver, target *domain.Target, summary *Summary) (bool, error) {
	log := r.logger.With("target_url", target.URL)

	outcome, err := driver.Navigate(ctx, target.URL)
	if err != nil {
		r.recordError(ctx, job, target, summary, err.Error())
		return false, nil
	}

	switch outcome {
	case pagedriver.OutcomeSessionExpired:
		return false, ErrSessionExpired
	case pagedriver.OutcomeNotFound:
		r.recordError(ctx, job, target, summary, "profile not found")
		return false, nil
	}

	displayName, err := driver.ExtractDisplayName(ctx)
	if err != nil {
		log.Debug("Could not extract display name", "error", err)
		displayName = ""
	}

	if err := r.pacer.ActionDelay(ctx); err != nil {
		return false, err
	}

	state, err := driver.DetectRelationshipState(ctx, displayName)
	if err != nil {
		r.recordError(ctx, job, target, summary, err.Error())
		return false, nil
	}

	decision := DecideConnect(state)
	log.Debug("Decided connect action",
		"state", state.String(), "status", decision.Status)

	if decision.Action == ActionNone {
		if job.DryRun {
			log.Info("[dry-run] would record status", "status", decision.Status)
			summary.Skipped++
			job.Skipped++
			return false, nil
		}
		r.recordStatus(ctx, job, target, summary, decision.Status, displayName)
		summary.Skipped++
		job.Skipped++
		r.publish(job, target, decision.Status, "no action needed")
		return false, nil
	}

	note := r.note.RenderNote(displayName)

	if job.DryRun {
		log.Info("[dry-run] would send invitation", "note_len", len(note))
		summary.Sent++
		job.Sent++
		return false, nil
	}

	result, err := driver.PerformInvite(ctx, note)
	if err != nil {
		r.recordError(ctx, job, target, summary, err.Error())
		return false, nil
	}

	switch result.Status {
	case pagedriver.ActionRateLimited:
		// Target stays pending for the next run.
		return true, nil
	case pagedriver.ActionFailed:
		r.recordError(ctx, job, target, summary, result.Reason)
		return false, nil
	}

	r.recordStatus(ctx, job, target, summary, domain.StatusRequestSent, displayName)
	if err := r.caps.Record(ctx, domain.CounterConnections); err != nil {
		log.Error("Failed to record counter increment", "error", err)
	}
	summary.Sent++
	job.Sent++
	log.Info("Invitation sent", "display_name", displayName)
	r.publish(job, target, domain.StatusRequestSent, "invitation sent")

	return false, nil
}

// messageTarget runs the message workflow for one request_sent target.
func (r *Runner) messageTarget(ctx context.Context, job *domain.Job, driver pagedriver.Driver, target *domain.Target, summary *Summary) (bool, error) {
	log := r.logger.With("target_url", target.URL)

	outcome, err := driver.Navigate(ctx, target.URL)
	if err != nil {
		r.recordError(ctx, job, target, summary, err.Error())
		return false, nil
	}

	switch outcome {
	case pagedriver.OutcomeSessionExpired:
		return false, ErrSessionExpired
	case pagedriver.OutcomeNotFound:
		r.recordError(ctx, job, target, summary, "profile not found")
		return false, nil
	}

	if err := r.pacer.ActionDelay(ctx); err != nil {
		return false, err
	}

	hasAffordance, err := driver.HasMessageAffordance(ctx)
	if err != nil {
		r.recordError(ctx, job, target, summary, err.Error())
		return false, nil
	}

	decision := DecideMessage(hasAffordance)
	if !decision.WriteBack {
		// Invitation not accepted yet; leave the row untouched.
		summary.StillPending++
		log.Debug("Connection still pending, no message sent")
		return false, nil
	}

	displayName := ""
	if target.DisplayName != nil {
		displayName = *target.DisplayName
	}
	if displayName == "" {
		if extracted, nameErr := driver.ExtractDisplayName(ctx); nameErr == nil {
			displayName = extracted
		}
	}

	text := r.message.Render(displayName)

	if job.DryRun {
		log.Info("[dry-run] would send message", "text_len", len(text))
		summary.Sent++
		job.Sent++
		return false, nil
	}

	result, err := driver.PerformMessage(ctx, text)
	if err != nil {
		r.recordError(ctx, job, target, summary, err.Error())
		return false, nil
	}

	switch result.Status {
	case pagedriver.ActionRateLimited:
		return true, nil
	case pagedriver.ActionFailed:
		r.recordError(ctx, job, target, summary, result.Reason)
		return false, nil
	}

	r.recordStatus(ctx, job, target, summary, domain.StatusMessaged, displayName)
	if err := r.caps.Record(ctx, domain.CounterMessages); err != nil {
		log.Error("Failed to record counter increment", "error", err)
	}
	summary.Sent++
	job.Sent++
	log.Info("Message sent", "display_name", displayName)
	r.publish(job, target, domain.StatusMessaged, "message sent")

	return false, nil
}

// cancelled reports whether the run should stop, either through context
// cancellation or an external cancellation request for this job.
func (r *Runner) cancelled(ctx context.Context, jobID string) (bool, error) {
	if ctx.Err() != nil {
		return true, nil
	}
	if r.cancels == nil {
		return false, nil
	}

	requested, err := r.cancels.Requested(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to check cancellation: %w", err)
	}

	return requested, nil
}

// recordStatus writes the target's new status. The counter is incremented
// by the caller only after this succeeds, so the run never over-counts.
func (r *Runner) recordStatus(ctx context.Context, job *domain.Job, target *domain.Target, summary *Summary, status, displayName string) {
	var namePtr *string
	if displayName != "" {
		namePtr = &displayName
	}

	if err := r.targets.UpdateStatus(ctx, target.URL, status, namePtr, nil); err != nil {
		r.logger.Error("Failed to update target status",
			"target_url", target.URL, "status", status, "error", err)
		summary.Errors++
		job.Errors++
	}
}

// recordError marks the target as errored and keeps the run going.
func (r *Runner) recordError(ctx context.Context, job *domain.Job, target *domain.Target, summary *Summary, reason string) {
	summary.Errors++
	job.Errors++

	actionErr := &ActionError{URL: target.URL, Reason: reason}
	r.logger.Warn("Target failed", "target_url", target.URL, "reason", reason)
	r.publish(job, target, domain.StatusError, reason)

	if job.DryRun {
		return
	}

	msg := actionErr.RecordableMessage()
	if err := r.targets.UpdateStatus(ctx, target.URL, domain.StatusError, nil, &msg); err != nil {
		r.logger.Error("Failed to record target error",
			"target_url", target.URL, "error", err)
	}
}

func (r *Runner) publish(job *domain.Job, target *domain.Target, status, message string) {
	r.bus.Publish(ProgressEvent{
		JobID:     job.ID,
		TargetURL: target.URL,
		Index:     job.Processed,
		Total:     job.TotalTargets,
		Status:    status,
		Message:   message,
	})
}

func (r *Runner) startJob(ctx context.Context, job *domain.Job) {
	now := time.Now()
	job.Status = domain.JobStatusRunning
	job.StartedAt = &now
	job.LiveStatus = "starting"
	r.updateJob(ctx, job)
}

func (r *Runner) setLive(ctx context.Context, job *domain.Job, status string) {
	job.LiveStatus = status
	r.updateJob(ctx, job)
}

func (r *Runner) failJob(ctx context.Context, job *domain.Job, cause error) {
	now := time.Now()
	msg := cause.Error()
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &now
	job.ErrorMessage = &msg
	job.LiveStatus = "failed"
	r.updateJob(ctx, job)
}

// finishJob writes the job's terminal state. Cancellation observed during
// the loop wins over completion; a fatal error wins over both.
func (r *Runner) finishJob(ctx context.Context, job *domain.Job, summary *Summary, runErr error) {
	now := time.Now()
	job.CompletedAt = &now

	switch {
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		msg := runErr.Error()
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = &msg
		job.LiveStatus = "failed"
	case job.Status == domain.JobStatusCancelled || errors.Is(runErr, context.Canceled):
		job.Status = domain.JobStatusCancelled
		job.LiveStatus = "cancelled"
	default:
		job.Status = domain.JobStatusCompleted
		job.LiveStatus = fmt.Sprintf("done: %d sent, %d skipped, %d errors",
			summary.Sent, summary.Skipped, summary.Errors)
	}

	r.updateJob(ctx, job)
	r.logger.Info("Run finished",
		"job_id", job.ID,
		"status", job.Status,
		"processed", summary.Processed,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"errors", summary.Errors)
}

func (r *Runner) updateJob(ctx context.Context, job *domain.Job) {
	if r.jobs == nil {
		return
	}
	if err := r.jobs.Update(ctx, job); err != nil {
		r.logger.Error("Failed to update job row", "job_id", job.ID, "error", err)
	}
}
