package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/database"
	"github.com/jonesrussell/linkreach/internal/logger"
)

// BuildDeps constructs logger and config for a command.
func BuildDeps() (CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return CommandDeps{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return CommandDeps{}, err
	}

	log, err := logger.New(cfg.GetLoggerConfig())
	if err != nil {
		return CommandDeps{}, fmt.Errorf("failed to create logger: %w", err)
	}

	deps := CommandDeps{Logger: log, Config: cfg}
	if err := deps.Validate(); err != nil {
		return CommandDeps{}, err
	}

	return deps, nil
}

// Repositories bundles the persistence layer handed to commands.
type Repositories struct {
	DB       *sqlx.DB
	Targets  *database.TargetRepository
	Counters *database.CounterRepository
	Jobs     *database.JobRepository
	Cancels  *database.CancelRepository
}

// OpenDatabase connects to Postgres, ensures the schema, and builds the
// repositories. The caller owns closing the DB.
func OpenDatabase(ctx context.Context, deps CommandDeps) (*Repositories, error) {
	db, err := database.NewPostgresConnection(deps.Config.GetDatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Repositories{
		DB:       db,
		Targets:  database.NewTargetRepository(db),
		Counters: database.NewCounterRepository(db),
		Jobs:     database.NewJobRepository(db),
		Cancels:  database.NewCancelRepository(db),
	}, nil
}
