// Package worker launches outreach jobs as background runs, one goroutine
// per job, each owning its own driver session.
package worker

import (
	"context"
	"fmt"

	"github.com/jonesrussell/linkreach/internal/caps"
	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/database"
	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/logger"
	"github.com/jonesrussell/linkreach/internal/outreach"
	"github.com/jonesrussell/linkreach/internal/pacing"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
	"github.com/jonesrussell/linkreach/internal/pagedriver/httpdriver"
	"github.com/jonesrussell/linkreach/internal/registry"
	"github.com/jonesrussell/linkreach/internal/session"
)

// DriverFactory builds a fresh page driver for one job.
type DriverFactory func() (pagedriver.Driver, error)

// Launcher builds runners and starts jobs. It implements the API's
// JobStarter contract.
type Launcher struct {
	targets   database.TargetRepositoryInterface
	jobs      database.JobRepositoryInterface
	cancels   database.CancelRepositoryInterface
	caps      *caps.Tracker
	pacer     *pacing.Controller
	session   *session.Manager
	note      *outreach.Template
	message   *outreach.Template
	registry  *registry.Registry
	bus       *outreach.Bus
	logger    logger.Interface
	newDriver DriverFactory
}

// LauncherParams bundles the launcher's collaborators. NewDriver may be
// nil, in which case the HTTP driver is used.
type LauncherParams struct {
	Config    config.Interface
	Targets   database.TargetRepositoryInterface
	Jobs      database.JobRepositoryInterface
	Cancels   database.CancelRepositoryInterface
	Counters  database.CounterRepositoryInterface
	Registry  *registry.Registry
	Bus       *outreach.Bus
	Logger    logger.Interface
	NewDriver DriverFactory
}

// NewLauncher creates a launcher. Templates are loaded eagerly so a
// missing template file fails startup instead of every job.
func NewLauncher(p LauncherParams) (*Launcher, error) {
	outreachCfg := p.Config.GetOutreachConfig()

	note, err := outreach.LoadTemplate(outreachCfg.NoteTemplatePath)
	if err != nil {
		return nil, err
	}
	message, err := outreach.LoadTemplate(outreachCfg.MessageTemplatePath)
	if err != nil {
		return nil, err
	}

	newDriver := p.NewDriver
	if newDriver == nil {
		newDriver = func() (pagedriver.Driver, error) {
			return httpdriver.New(outreachCfg, p.Logger.WithComponent("httpdriver"))
		}
	}

	bus := p.Bus
	if bus == nil {
		bus = outreach.NewBus()
	}

	return &Launcher{
		targets:   p.Targets,
		jobs:      p.Jobs,
		cancels:   p.Cancels,
		caps:      caps.NewTracker(p.Counters, outreachCfg),
		pacer:     pacing.NewController(outreachCfg, p.Logger.WithComponent("pacing")),
		session:   session.NewManager(p.Config.GetSessionConfig(), outreachCfg, p.Logger.WithComponent("session")),
		note:      note,
		message:   message,
		registry:  p.Registry,
		bus:       bus,
		logger:    p.Logger,
		newDriver: newDriver,
	}, nil
}

// Bus returns the progress event bus shared by all runs.
func (l *Launcher) Bus() *outreach.Bus {
	return l.bus
}

// Start launches the job in the background. Refuses a job that is
// already running.
func (l *Launcher) Start(job *domain.Job) error {
	ctx, cancel := context.WithCancel(context.Background())

	if !l.registry.Register(job.ID, cancel) {
		cancel()
		return fmt.Errorf("job %s is already running", job.ID)
	}

	go func() {
		defer l.registry.Deregister(job.ID)
		defer cancel()

		if _, err := l.run(ctx, job); err != nil {
			l.logger.Error("Job run failed", "job_id", job.ID, "error", err)
		}
	}()

	return nil
}

// RunSync runs the job inline, for the CLI batch entry point. The context
// carries interrupt-driven cancellation.
func (l *Launcher) RunSync(ctx context.Context, job *domain.Job) (*outreach.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !l.registry.Register(job.ID, cancel) {
		return nil, fmt.Errorf("job %s is already running", job.ID)
	}
	defer l.registry.Deregister(job.ID)

	return l.run(ctx, job)
}

func (l *Launcher) run(ctx context.Context, job *domain.Job) (*outreach.Summary, error) {
	driver, err := l.newDriver()
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	runner := outreach.NewRunner(outreach.RunnerParams{
		Targets: l.targets,
		Jobs:    l.jobs,
		Cancels: l.cancels,
		Caps:    l.caps,
		Pacer:   l.pacer,
		Session: l.session,
		Note:    l.note,
		Message: l.message,
		Bus:     l.bus,
		Logger:  l.logger.WithJobID(job.ID),
	})

	return runner.Run(ctx, job, driver)
}
