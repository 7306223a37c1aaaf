// Package targets implements target-list management commands.
package targets

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/linkreach/cmd/common"
	"github.com/jonesrussell/linkreach/internal/export"
	"github.com/jonesrussell/linkreach/internal/ingest"
	"github.com/jonesrussell/linkreach/internal/outreach"
)

// Command returns the targets command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage the target list",
	}

	cmd.AddCommand(importCommand())
	cmd.AddCommand(exportCommand())
	cmd.AddCommand(resetErrorsCommand())

	return cmd
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import profile URLs from a CSV or plain-text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.BuildDeps()
			if err != nil {
				return err
			}

			repos, err := cmdcommon.OpenDatabase(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer repos.DB.Close()

			urls, invalid, err := ingest.ReadTargetFile(args[0])
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("%w: no valid profile URLs in %s", outreach.ErrValidation, args[0])
			}

			result, err := repos.Targets.Import(cmd.Context(), urls)
			if err != nil {
				return fmt.Errorf("failed to import targets: %w", err)
			}

			fmt.Printf("Imported %d new targets (%d duplicates skipped, %d total)\n",
				result.Imported, result.Skipped, result.Total)
			if len(invalid) > 0 {
				fmt.Printf("Ignored %d invalid entries\n", len(invalid))
			}

			return nil
		},
	}
}

func exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all targets to CSV",
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

			exporter := export.NewExporter(repos.Targets)
			count, err := exporter.WriteFile(cmd.Context(), output)
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d targets to %s\n", count, output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "targets.csv", "output CSV path")

	return cmd
}

func resetErrorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-errors",
		Short: "Move all errored targets back to pending for retry",
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

			count, err := repos.Targets.ResetErrored(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to reset errored targets: %w", err)
			}

			fmt.Printf("Reset %d errored targets to pending\n", count)

			return nil
		},
	}
}
