// Package httpd implements the HTTP API server command.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/linkreach/cmd/common"
	"github.com/jonesrussell/linkreach/internal/api"
	"github.com/jonesrussell/linkreach/internal/registry"
	"github.com/jonesrussell/linkreach/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP API server",
		Long: `Httpd serves the job-control API: creating and cancelling outreach
jobs, importing targets, and reporting progress.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.BuildDeps()
			if err != nil {
				return err
			}
			return Start(cmd.Context(), deps)
		},
	}
}

// Start runs the API server until interrupted.
func Start(parent context.Context, deps cmdcommon.CommandDeps) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := cmdcommon.OpenDatabase(ctx, deps)
	if err != nil {
		return err
	}
	defer repos.DB.Close()

	reg := registry.New()

	launcher, err := worker.NewLauncher(worker.LauncherParams{
		Config:   deps.Config,
		Targets:  repos.Targets,
		Jobs:     repos.Jobs,
		Cancels:  repos.Cancels,
		Counters: repos.Counters,
		Registry: reg,
		Logger:   deps.Logger.WithComponent("worker"),
	})
	if err != nil {
		return err
	}

	handlers := api.NewHandlers(api.HandlersParams{
		Jobs:     repos.Jobs,
		Targets:  repos.Targets,
		Counters: repos.Counters,
		Cancels:  repos.Cancels,
		Registry: reg,
		Starter:  launcher,
		Logger:   deps.Logger.WithComponent("api"),
	})

	router := api.SetupRouter(deps.Logger.WithComponent("http"), handlers)
	srv := api.NewHTTPServer(deps.Config.GetServerConfig(), router)

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("HTTP server listening", "address", srv.Addr)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("Shutting down HTTP server")
	case serveErr := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	return nil
}
