package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/NoduleAdvisor/internal/config"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/database/postgres"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
)

// migrationRunner is the subset of postgres.Migrator used by the command.
type migrationRunner interface {
	Up() error
	Down(steps int) error
	Status() (postgres.MigrationState, error)
}

// newMigrationRunner is replaced in tests.
var newMigrationRunner = func(cfg config.DatabaseConfig, log logging.Logger) migrationRunner {
	return postgres.NewMigrator(cfg.DSN(), cfg.MigrationsPath, log)
}

// NewMigrateCmd creates `nodulectl migrate up|down|status` for the audit
// store schema.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the audit store schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := migrationRunnerFor(cmd)
			if err != nil {
				return err
			}
			if err := runner.Down(steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				runner, err := migrationRunnerFor(cmd)
				if err != nil {
					return err
				}
				if err := runner.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "OK: schema is up to date")
				return nil
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				runner, err := migrationRunnerFor(cmd)
				if err != nil {
					return err
				}
				state, err := runner.Status()
				if err != nil {
					return err
				}
				return PrintResult(cmd, migrationStatus(state))
			},
		},
	)
	return cmd
}

func migrationRunnerFor(cmd *cobra.Command) (migrationRunner, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	return newMigrationRunner(cliCtx.Config.Database, cliCtx.Logger), nil
}

type migrationStatus postgres.MigrationState

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty)\n", s.Version)
	}
	return fmt.Sprintf("version %d\n", s.Version)
}

//Personal.AI order the ending
