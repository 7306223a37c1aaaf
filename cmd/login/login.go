// Package login implements the interactive login command that acquires
// and persists an authenticated session blob.
package login

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	cmdcommon "github.com/jonesrussell/linkreach/cmd/common"
	"github.com/jonesrussell/linkreach/internal/pagedriver/httpdriver"
	"github.com/jonesrussell/linkreach/internal/session"
)

// Command returns the login command.
func Command() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session for later runs",
		Long: `Login authenticates against the platform and stores the resulting
session blob on disk. Runs reuse that session until it expires.

Credentials can be passed via flags, the LINKREACH_EMAIL and
LINKREACH_PASSWORD environment variables, or interactive prompts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.BuildDeps()
			if err != nil {
				return err
			}

			if email == "" {
				email = os.Getenv("LINKREACH_EMAIL")
			}
			if password == "" {
				password = os.Getenv("LINKREACH_PASSWORD")
			}

			if email == "" {
				email, err = prompt("Email: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				password, err = promptSecret("Password: ")
				if err != nil {
					return err
				}
			}

			driver, err := httpdriver.New(deps.Config.GetOutreachConfig(),
				deps.Logger.WithComponent("httpdriver"))
			if err != nil {
				return err
			}
			defer driver.Close()

			if err := driver.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			manager := session.NewManager(deps.Config.GetSessionConfig(),
				deps.Config.GetOutreachConfig(), deps.Logger.WithComponent("session"))

			authenticated, err := manager.IsAuthenticated(cmd.Context(), driver)
			if err != nil {
				return err
			}
			if !authenticated {
				return fmt.Errorf("login did not produce an authenticated session")
			}

			if err := manager.Persist(driver); err != nil {
				return err
			}

			fmt.Println("Login successful. Session saved.")

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prefer the env var or prompt)")

	return cmd
}

func prompt(label string) (string, error) {
	fmt.Print(label)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func promptSecret(label string) (string, error) {
	fmt.Print(label)

	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimSpace(string(raw)), nil
}
