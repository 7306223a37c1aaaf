// Package scheduler implements the recurring-run command.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/linkreach/cmd/common"
	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/registry"
	"github.com/jonesrussell/linkreach/internal/worker"
)

// Command returns the scheduler command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run outreach batches on a recurring schedule",
		Long: `Scheduler starts an outreach job on the configured cron schedule
(scheduler.cron) in the configured mode (scheduler.mode). A new run is
skipped while the previous one is still going.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.BuildDeps()
			if err != nil {
				return err
			}
			return Start(cmd.Context(), deps)
		},
	}
}

// Start runs the scheduler loop until interrupted.
func Start(parent context.Context, deps cmdcommon.CommandDeps) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedCfg := deps.Config.GetSchedulerConfig()
	if !domain.ValidMode(schedCfg.Mode) {
		return fmt.Errorf("invalid scheduler mode %q", schedCfg.Mode)
	}

	repos, err := cmdcommon.OpenDatabase(ctx, deps)
	if err != nil {
		return err
	}
	defer repos.DB.Close()

	launcher, err := worker.NewLauncher(worker.LauncherParams{
		Config:   deps.Config,
		Targets:  repos.Targets,
		Jobs:     repos.Jobs,
		Cancels:  repos.Cancels,
		Counters: repos.Counters,
		Registry: registry.New(),
		Logger:   deps.Logger.WithComponent("scheduler"),
	})
	if err != nil {
		return err
	}

	// One run at a time: a tick is skipped while the previous run lives.
	busy := make(chan struct{}, 1)

	c := cron.New()
	_, err = c.AddFunc(schedCfg.Cron, func() {
		select {
		case busy <- struct{}{}:
		default:
			deps.Logger.Warn("Previous scheduled run still active, skipping tick")
			return
		}
		defer func() { <-busy }()

		runScheduled(ctx, deps, repos, launcher, schedCfg.Mode)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedCfg.Cron, err)
	}

	deps.Logger.Info("Scheduler started",
		"cron", schedCfg.Cron, "mode", schedCfg.Mode)
	c.Start()

	<-ctx.Done()

	deps.Logger.Info("Scheduler stopping")
	<-c.Stop().Done()

	return nil
}

func runScheduled(ctx context.Context, deps cmdcommon.CommandDeps, repos *cmdcommon.Repositories, launcher *worker.Launcher, mode string) {
	job := &domain.Job{
		ID:         uuid.New().String(),
		Mode:       mode,
		Status:     domain.JobStatusPending,
		LiveStatus: "scheduled",
	}

	if err := repos.Jobs.Create(ctx, job); err != nil {
		deps.Logger.Error("Failed to create scheduled job", "error", err)
		return
	}

	deps.Logger.Info("Scheduled run starting", "job_id", job.ID, "mode", mode)

	summary, err := launcher.RunSync(ctx, job)
	if err != nil {
		deps.Logger.Error("Scheduled run failed", "job_id", job.ID, "error", err)
		return
	}

	deps.Logger.Info("Scheduled run finished",
		"job_id", job.ID,
		"processed", summary.Processed,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"errors", summary.Errors)
}
