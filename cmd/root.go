// Package cmd implements the command-line interface for linkreach.
// It provides the root command and subcommands for running outreach
// batches and managing targets and sessions.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/linkreach/cmd/httpd"
	"github.com/jonesrussell/linkreach/cmd/login"
	"github.com/jonesrussell/linkreach/cmd/run"
	cmdscheduler "github.com/jonesrussell/linkreach/cmd/scheduler"
	"github.com/jonesrussell/linkreach/cmd/status"
	"github.com/jonesrussell/linkreach/cmd/targets"
	"github.com/jonesrussell/linkreach/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands.
	Debug bool

	// rootCmd represents the root command for the linkreach CLI.
	rootCmd = &cobra.Command{
		Use:   "linkreach",
		Short: "Automated connection and follow-up outreach",
		Long: `Linkreach drives connection invitations and follow-up messages to a
list of target profiles, with durable state, daily caps and human-like
pacing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get debug flag before creating the logger
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("linkreach version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(run.Command())
	rootCmd.AddCommand(status.Command())
	rootCmd.AddCommand(targets.Command())
	rootCmd.AddCommand(login.Command())
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
}

// initConfig reads the config file and environment variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// godotenv.Load() is idempotent and never overwrites existing vars.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: .env file not found: %v\n", err)
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional; defaults and environment cover the rest.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr,
			"Warning: Config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := bindFlagsAndEnv(); err != nil {
		return err
	}

	setupDevelopmentLogging()

	return nil
}

// bindFlagsAndEnv binds command-line flags and named environment
// variables to Viper keys.
func bindFlagsAndEnv() error {
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}

	envBindings := map[string][]string{
		"app.environment":   {"APP_ENV"},
		"app.debug":         {"APP_DEBUG"},
		"logger.level":      {"LOG_LEVEL"},
		"logger.encoding":   {"LOG_FORMAT"},
		"database.host":     {"DB_HOST", "POSTGRES_HOST"},
		"database.port":     {"DB_PORT", "POSTGRES_PORT"},
		"database.user":     {"DB_USER", "POSTGRES_USER"},
		"database.password": {"DB_PASSWORD", "POSTGRES_PASSWORD"},
		"database.dbname":   {"DB_NAME", "POSTGRES_DB"},
		"session.blob_path": {"SESSION_BLOB_PATH"},
	}
	for key, vars := range envBindings {
		args := append([]string{key}, vars...)
		if err := viper.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	return nil
}

// setupDevelopmentLogging configures development logging based on the
// environment and debug flag.
func setupDevelopmentLogging() {
	debugFlag := Debug || viper.GetBool("app.debug")
	isDev := viper.GetString("app.environment") == "development"

	if debugFlag {
		viper.Set("logger.level", "debug")
	}

	if isDev {
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}

	Debug = debugFlag
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "linkreach",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"encoding":     "json",
		"output_paths": []string{"stdout"},
	})

	viper.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "15s",
		"idle_timeout":  "60s",
	})

	viper.SetDefault("database", map[string]any{
		"host":    "localhost",
		"port":    "5432",
		"user":    "linkreach",
		"dbname":  "linkreach",
		"sslmode": "disable",
	})

	viper.SetDefault("outreach", map[string]any{
		"daily_connection_cap": config.DefaultDailyConnectionCap,
		"daily_message_cap":    config.DefaultDailyMessageCap,
		"action_delay_min":     "2s",
		"action_delay_max":     "5s",
		"target_delay_min":     "45s",
		"target_delay_max":     "90s",
		"long_pause_every_n":   config.DefaultLongPauseEveryN,
		"long_pause_min":       "5m",
		"long_pause_max":       "10m",
		"note_template":        "templates/connection_note.txt",
		"message_template":     "templates/followup_message.txt",
	})

	viper.SetDefault("session", map[string]any{
		"blob_path": "state.json",
	})

	viper.SetDefault("scheduler", map[string]any{
		"cron": "0 9 * * 1-5",
		"mode": "connect",
	})
}
