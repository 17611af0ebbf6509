package main

import (
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/giterra/internal/bootstrap"
	"github.com/bryanwahyu/giterra/internal/infra/db"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		Long: `Manage the schema of the configured SQL database.

Examples:
  # Migrate to the latest version
  giterractl migrate up

  # Migrate to a specific version
  giterractl migrate up --to 1

  # Roll every migration back
  giterractl migrate down`,
	}

	var upTo, downTo int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations (default: all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts, upTo)
		},
	}
	up.Flags().IntVar(&upTo, "to", -1, "target version, negative means latest")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll migrations back (default: all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts, downTo)
		},
	}
	down.Flags().IntVar(&downTo, "to", 0, "target version, 0 removes every table")

	cmd.AddCommand(up, down)
	return cmd
}

func runMigrate(cmd *cobra.Command, opts *options, target int) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	d, dsn, err := bootstrap.Database(cfg)
	if err != nil {
		return err
	}
	return db.Migrate(cmd.Context(), d, dsn, target, opts.logger(cfg))
}
