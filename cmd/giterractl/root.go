package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/giterra/internal/config"
	"github.com/bryanwahyu/giterra/internal/logging"
)

// options shared by every subcommand
type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "giterractl",
		Short:         "Operate the giterra analysis store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newCollectCmd(opts),
		newPlanetCmd(opts),
		newReposCmd(opts),
	)
	return cmd
}

// load resolves the config file the same way the API server does.
func (o *options) load() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return config.Load(path)
}

func (o *options) logger(cfg *config.Config) *slog.Logger {
	level := logging.LevelFromString(cfg.Log.Level)
	if o.verbose {
		level = slog.LevelDebug
	}
	return logging.New(os.Stderr, level, logging.Format(cfg.Log.Format))
}
