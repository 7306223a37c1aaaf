// Package run implements the batch-mode outreach command.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcommon "github.com/jonesrussell/linkreach/cmd/common"
	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/ingest"
	"github.com/jonesrussell/linkreach/internal/outreach"
	"github.com/jonesrussell/linkreach/internal/registry"
	"github.com/jonesrussell/linkreach/internal/session"
	"github.com/jonesrussell/linkreach/internal/worker"
)

// Command returns the run command.
func Command() *cobra.Command {
	var (
		file         string
		mode         string
		dryRun       bool
		capFlag      int
		delayMin     time.Duration
		delayMax     time.Duration
		noteTemplate string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an outreach batch over the target list",
		Long: `Run processes eligible targets through the outreach workflow:
sending connection invitations (connect), follow-up messages (message),
or both. Pacing, daily caps and templates come from configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !domain.ValidMode(mode) {
				return fmt.Errorf("invalid --mode %q: must be connect, message or both", mode)
			}

			// Flag overrides feed the same config the launcher reads.
			if capFlag > 0 {
				viper.Set("outreach.daily_connection_cap", capFlag)
			}
			if delayMin > 0 {
				viper.Set("outreach.target_delay_min", delayMin.String())
			}
			if delayMax > 0 {
				viper.Set("outreach.target_delay_max", delayMax.String())
			}
			if noteTemplate != "" {
				viper.Set("outreach.note_template", noteTemplate)
			}

			deps, err := cmdcommon.BuildDeps()
			if err != nil {
				return err
			}

			return execute(cmd.Context(), deps, file, mode, dryRun)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "target-list file (CSV or one URL per line) to import before running")
	cmd.Flags().StringVarP(&mode, "mode", "m", domain.ModeConnect, "workflow mode: connect, message or both")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "observe and decide but never send anything")
	cmd.Flags().IntVar(&capFlag, "cap", 0, "override the daily connection cap for this run")
	cmd.Flags().DurationVar(&delayMin, "delay-min", 0, "override the minimum delay between targets")
	cmd.Flags().DurationVar(&delayMax, "delay-max", 0, "override the maximum delay between targets")
	cmd.Flags().StringVar(&noteTemplate, "note-template", "", "override the connection note template file")

	return cmd
}

func execute(parent context.Context, deps cmdcommon.CommandDeps, file, mode string, dryRun bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := cmdcommon.OpenDatabase(ctx, deps)
	if err != nil {
		return err
	}
	defer repos.DB.Close()

	if file != "" {
		if err := importFile(ctx, deps, repos, file); err != nil {
			return err
		}
	}

	launcher, err := worker.NewLauncher(worker.LauncherParams{
		Config:   deps.Config,
		Targets:  repos.Targets,
		Jobs:     repos.Jobs,
		Cancels:  repos.Cancels,
		Counters: repos.Counters,
		Registry: registry.New(),
		Logger:   deps.Logger,
	})
	if err != nil {
		return err
	}

	job := &domain.Job{
		ID:         uuid.New().String(),
		Mode:       mode,
		Status:     domain.JobStatusPending,
		LiveStatus: "queued",
		DryRun:     dryRun,
	}
	if err := repos.Jobs.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	deps.Logger.Info("Starting outreach run",
		"job_id", job.ID, "mode", mode, "dry_run", dryRun)

	summary, runErr := launcher.RunSync(ctx, job)

	if summary != nil {
		fmt.Printf("\nRun summary: processed=%d sent=%d skipped=%d errors=%d",
			summary.Processed, summary.Sent, summary.Skipped, summary.Errors)
		if summary.StillPending > 0 {
			fmt.Printf(" still_pending=%d", summary.StillPending)
		}
		if summary.RateLimited {
			fmt.Print(" (stopped early: platform rate limit)")
		}
		fmt.Println()
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, context.Canceled):
		// User cancellation is a normal exit.
		deps.Logger.Info("Run cancelled by user")
		return nil
	case errors.Is(runErr, session.ErrNeedsLogin):
		return fmt.Errorf("no usable session: run `linkreach login` first")
	default:
		return runErr
	}
}

func importFile(ctx context.Context, deps cmdcommon.CommandDeps, repos *cmdcommon.Repositories, file string) error {
	urls, invalid, err := ingest.ReadTargetFile(file)
	if err != nil {
		return err
	}
	if len(invalid) > 0 {
		deps.Logger.Warn("Skipping invalid URLs from target file",
			"count", len(invalid), "first", invalid[0])
	}
	if len(urls) == 0 {
		return fmt.Errorf("%w: no valid profile URLs in %s", outreach.ErrValidation, file)
	}

	result, err := repos.Targets.Import(ctx, urls)
	if err != nil {
		return fmt.Errorf("failed to import targets: %w", err)
	}

	deps.Logger.Info("Targets imported",
		"imported", result.Imported, "skipped", result.Skipped, "total", result.Total)

	return nil
}
