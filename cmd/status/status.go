// Package status implements the status dashboard command.
package status

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/linkreach/cmd/common"
	"github.com/jonesrussell/linkreach/internal/domain"
)

const recentDays = 7

// Command returns the status command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the outreach status dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.BuildDeps()
			if err != nil {
				return err
			}

			repos, err := cmdcommon.OpenDatabase(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer repos.DB.Close()

			return render(cmd.Context(), deps, repos)
		},
	}
}

func render(ctx context.Context, deps cmdcommon.CommandDeps, repos *cmdcommon.Repositories) error {
	summary, err := repos.Targets.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to summarize targets: %w", err)
	}

	fmt.Println("Targets")
	renderTargetTable(summary)

	stats, err := repos.Counters.RecentStats(ctx, recentDays)
	if err != nil {
		return fmt.Errorf("failed to load daily stats: %w", err)
	}

	outreachCfg := deps.Config.GetOutreachConfig()
	fmt.Printf("\nDaily activity (caps: %d connections, %d messages)\n",
		outreachCfg.DailyConnectionCap, outreachCfg.DailyMessageCap)
	renderCounterTable(stats)

	jobs, err := repos.Jobs.List(ctx, "", 10, 0)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(jobs) > 0 {
		fmt.Println("\nRecent jobs")
		renderJobTable(jobs)
	}

	return nil
}

func renderTargetTable(summary map[string]int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Status", "Count"})
	for _, status := range domain.AllStatuses {
		t.AppendRow(table.Row{status, summary[status]})
	}
	t.AppendFooter(table.Row{"total", summary["total"]})

	t.Render()
}

func renderCounterTable(stats []*domain.DailyCounter) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Date", "Connections", "Messages"})
	for _, day := range stats {
		t.AppendRow(table.Row{
			day.Date.Format("2006-01-02"),
			day.ConnectionsSent,
			day.MessagesSent,
		})
	}

	t.Render()
}

func renderJobTable(jobs []*domain.Job) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Mode", "Status", "Sent", "Skipped", "Errors", "Live Status"})
	for _, job := range jobs {
		t.AppendRow(table.Row{
			job.ID,
			job.Mode,
			job.Status,
			job.Sent,
			job.Skipped,
			job.Errors,
			job.LiveStatus,
		})
	}

	t.Render()
}
